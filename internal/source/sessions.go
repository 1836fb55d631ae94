package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paydesk/reconcile/internal/model"
)

// SessionFile serves work sessions from a sessions.yaml file, acting as the
// session source for CLI runs.
type SessionFile struct {
	sessions []model.WorkSession
}

type sessionDoc struct {
	Sessions []sessionEntry `yaml:"sessions"`
}

type sessionEntry struct {
	CabinetID   string     `yaml:"cabinet_id"`
	CabinetType string     `yaml:"cabinet_type"`
	Operator    string     `yaml:"operator"`
	Start       time.Time  `yaml:"start"`
	End         *time.Time `yaml:"end"` // omitted for still-open shifts
}

// LoadSessionFile reads and validates a sessions.yaml file.
func LoadSessionFile(path string) (*SessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sessions file: %w", err)
	}

	var doc sessionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing sessions file: %w", err)
	}

	f := &SessionFile{}
	for _, e := range doc.Sessions {
		ct, _ := model.ParseCabinetType(e.CabinetType)
		f.sessions = append(f.sessions, model.WorkSession{
			CabinetID:   e.CabinetID,
			CabinetType: ct,
			StartTime:   e.Start,
			EndTime:     e.End,
			OperatorID:  e.Operator,
		})
	}
	return f, nil
}

// Sessions returns the operator's sessions overlapping [from, to).
func (f *SessionFile) Sessions(ctx context.Context, operatorID string, from, to time.Time) ([]model.WorkSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []model.WorkSession
	for _, s := range f.sessions {
		if s.OperatorID != operatorID {
			continue
		}
		if !s.StartTime.Before(to) {
			continue
		}
		if s.EndTime != nil && !s.EndTime.After(from) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
