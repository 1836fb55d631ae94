package window

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/paydesk/reconcile/internal/model"
)

// Override is one per-cabinet window override as supplied by the caller,
// typically pasted or uploaded alongside an operator's shift configuration.
type Override struct {
	CabinetID   string `json:"cabinetId"`
	CabinetType string `json:"cabinetType"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// ParseOverrides decodes a serialized override list into work sessions for
// operatorID. Malformed input is non-fatal: the whole payload or individual
// entries degrade to "no windows" with a logged diagnostic, so the caller
// always receives a usable (possibly empty) slice and never an error.
func ParseOverrides(raw []byte, operatorID string, log zerolog.Logger) []model.WorkSession {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var overrides []Override
	if err := json.Unmarshal(raw, &overrides); err != nil {
		log.Warn().Err(err).Msg("window overrides unparseable, treating as no windows")
		return nil
	}

	sessions := make([]model.WorkSession, 0, len(overrides))
	for i, o := range overrides {
		start, err := parseOverrideTime(o.StartDate)
		if err != nil {
			log.Warn().Int("index", i).Str("startDate", o.StartDate).Err(err).
				Msg("override skipped: bad start date")
			continue
		}
		end, err := parseOverrideTime(o.EndDate)
		if err != nil {
			log.Warn().Int("index", i).Str("endDate", o.EndDate).Err(err).
				Msg("override skipped: bad end date")
			continue
		}

		ct, known := model.ParseCabinetType(o.CabinetType)
		if !known {
			log.Warn().Int("index", i).Str("cabinetType", o.CabinetType).
				Msg("unknown cabinet type, defaulting to exchange")
		}

		sessions = append(sessions, model.WorkSession{
			CabinetID:   o.CabinetID,
			CabinetType: ct,
			StartTime:   start,
			EndTime:     &end,
			OperatorID:  operatorID,
		})
	}
	return sessions
}

// overrideTimeFormats are accepted in the order listed. RFC3339 is what the
// UI exports today; the date-time form shows up in hand-edited payloads.
var overrideTimeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

func parseOverrideTime(s string) (time.Time, error) {
	var lastErr error
	for _, f := range overrideTimeFormats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
