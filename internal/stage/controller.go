package stage

import (
	"github.com/muhammadolammi/cvbuilder/internal/record"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

// DefaultQuestionBudget is the number of clarifying questions asked per stage
// before the stage is force-advanced.
const DefaultQuestionBudget = 4

// Progress tracks where a session is in the stage sequence.
type Progress struct {
	Stage     schema.StageID `json:"stage"`
	Questions int            `json:"questions"`
	Turns     int            `json:"turns"`
	Complete  bool           `json:"complete"`
}

// Transition describes a stage change.
type Transition struct {
	From        schema.StageID `json:"from"`
	To          schema.StageID `json:"to"`
	Forced      bool           `json:"forced,omitempty"`
	Skipped     []string       `json:"skipped,omitempty"`
	Instruction string         `json:"-"`
	Complete    bool           `json:"complete,omitempty"`
}

// Controller decides when the active stage is done. Stages run in schema order and
// are never skipped or revisited.
type Controller struct {
	schema *schema.Schema
	budget int
}

func New(s *schema.Schema, budget int) *Controller {
	if budget <= 0 {
		budget = DefaultQuestionBudget
	}
	return &Controller{schema: s, budget: budget}
}

func (c *Controller) Budget() int {
	return c.budget
}

// Start returns the progress of a new session.
func (c *Controller) Start() Progress {
	return Progress{Stage: c.schema.First()}
}

// Instruction returns the extraction guidance for a stage.
func (c *Controller) Instruction(id schema.StageID) string {
	if st, ok := c.schema.Stage(id); ok {
		return st.Instruction
	}
	return ""
}

// Satisfied reports whether every required field of the active stage is confirmed,
// no field is waiting on an anomaly and the stage saw its minimum number of turns.
func (c *Controller) Satisfied(p Progress, rec *record.Record) bool {
	st, ok := c.schema.Stage(p.Stage)
	if !ok {
		return false
	}
	if p.Turns < st.MinTurns {
		return false
	}
	if len(rec.Anomalies(p.Stage)) > 0 {
		return false
	}
	for _, f := range st.Required() {
		if rec.Status(f.Name) != record.StatusConfirmed {
			return false
		}
	}
	return true
}

// Exhausted reports whether the stage used up its question budget.
func (c *Controller) Exhausted(p Progress) bool {
	return p.Questions >= c.budget
}

// Advance moves to the next stage when the active one is satisfied or out of
// questions. A stage with an open anomaly never advances. The transition is nil
// when the session stays where it is.
func (c *Controller) Advance(p Progress, rec *record.Record) (Progress, *Transition) {
	if p.Complete {
		return p, nil
	}
	st, ok := c.schema.Stage(p.Stage)
	if !ok {
		return p, nil
	}

	// Anomalies wait for a correction or override, whatever the budget says.
	if len(rec.Anomalies(p.Stage)) > 0 {
		return p, nil
	}

	t := &Transition{From: p.Stage}
	switch {
	case c.Satisfied(p, rec):
	case c.Exhausted(p):
		t.Forced = true
		t.Skipped = rec.Unset(st.Required())
		rec.Skip(t.Skipped)
	default:
		return p, nil
	}

	next := c.schema.Next(p.Stage)
	t.To = next
	p = Progress{Stage: next}
	if next == schema.Complete {
		p.Complete = true
		t.Complete = true
		return p, t
	}
	t.Instruction = c.Instruction(next)
	return p, t
}
