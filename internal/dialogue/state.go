// Package dialogue runs the conversation: one user turn in, one assistant message
// out, with the record and stage progress updated in between.
package dialogue

import (
	"errors"
	"slices"
	"time"

	"github.com/muhammadolammi/cvbuilder/internal/chat"
	"github.com/muhammadolammi/cvbuilder/internal/record"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
	"github.com/muhammadolammi/cvbuilder/internal/stage"
)

var (
	// ErrExtractionUnavailable means the turn could not be processed and nothing was
	// committed. The same message can be sent again.
	ErrExtractionUnavailable = errors.New("extraction unavailable")
	ErrSessionNotFound       = errors.New("session not found")
	ErrEmptyMessage          = errors.New("empty message")
)

// SessionState is everything one conversation owns.
type SessionState struct {
	ID          string
	UserID      string
	Progress    stage.Progress
	Record      *record.Record
	History     chat.History
	Transitions []stage.Transition
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *SessionState) Clone() *SessionState {
	c := *s
	c.Record = s.Record.Clone()
	c.History = slices.Clone(s.History)
	c.Transitions = slices.Clone(s.Transitions)
	return &c
}

// Complete reports whether the last stage has been passed.
func (s *SessionState) Complete() bool {
	return s.Progress.Complete
}

// Reply is the result of one turn.
type Reply struct {
	Message    string            `json:"message"`
	Stage      schema.StageID    `json:"stage"`
	Progress   int               `json:"progress"`
	Complete   bool              `json:"complete"`
	Confirmed  []string          `json:"confirmed,omitempty"`
	Anomalies  []string          `json:"anomalies,omitempty"`
	Transition *stage.Transition `json:"transition,omitempty"`
	Summary    *record.Summary   `json:"summary,omitempty"`
}
