// internal/journey/session.go
package journey

import (
	"loan-journey/internal/models"

	"github.com/google/uuid"
)

// Session is one applicant conversation. It owns the authoritative record;
// a Session must not be used from more than one goroutine at a time.
type Session struct {
	ID            string
	Record        models.ApplicationRecord
	ApplicationID string
}

func NewSession() *Session {
	return &Session{
		ID:     uuid.New().String(),
		Record: models.NewApplicationRecord(),
	}
}

// Concluded reports whether the journey can take no further messages.
func (s *Session) Concluded() bool {
	return s.Record.Stage.IsTerminal()
}
