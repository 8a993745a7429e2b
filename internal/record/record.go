package record

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

var (
	ErrUnknownField   = errors.New("unknown field")
	ErrMalformedValue = errors.New("malformed field value")
)

type Status string

const (
	StatusUnset     Status = "unset"
	StatusExtracted Status = "extracted"
	StatusConfirmed Status = "confirmed"
	StatusAnomaly   Status = "anomaly"
	StatusSkipped   Status = "skipped"
)

type AnomalyKind string

const (
	AnomalyNone      AnomalyKind = ""
	AnomalyMalformed AnomalyKind = "malformed"
	AnomalyRange     AnomalyKind = "range"
	AnomalyConflict  AnomalyKind = "conflict"
)

// FieldState is the current value and status of one field.
type FieldState struct {
	Value  schema.Value
	Status Status
	Kind   AnomalyKind
	Reason string

	// Candidate is the raw text of a malformed value or the incoming value of a conflict.
	Candidate schema.Value

	// History lists previously confirmed values, oldest first.
	History      []schema.Value
	FormatErrors int
	Overridden   bool
}

func (s *FieldState) clone() *FieldState {
	c := *s
	c.Value = s.Value.Clone()
	c.Candidate = s.Candidate.Clone()
	c.History = nil
	for _, v := range s.History {
		c.History = append(c.History, v.Clone())
	}
	return &c
}

func (s *FieldState) remember(v schema.Value) {
	if n := len(s.History); n > 0 && s.History[n-1].Equal(v) {
		return
	}
	s.History = append(s.History, v.Clone())
}

// Change describes one field written by Apply.
type Change struct {
	Field    string
	Prev     schema.Value
	Next     schema.Value
	Conflict bool
}

// Record accumulates field values across stages. It is owned by a single session
// and must not be shared between goroutines.
type Record struct {
	schema *schema.Schema
	fields map[string]*FieldState
}

func New(s *schema.Schema) *Record {
	r := &Record{
		schema: s,
		fields: make(map[string]*FieldState),
	}
	for _, f := range s.Fields() {
		r.fields[f.Name] = &FieldState{Status: StatusUnset}
	}
	return r
}

func (r *Record) Schema() *schema.Schema {
	return r.schema
}

// State returns a copy of the named field's state.
func (r *Record) State(name string) (FieldState, bool) {
	st, ok := r.fields[name]
	if !ok {
		return FieldState{}, false
	}
	return *st.clone(), true
}

func (r *Record) Status(name string) Status {
	if st, ok := r.fields[name]; ok {
		return st.Status
	}
	return ""
}

func (r *Record) Value(name string) schema.Value {
	if st, ok := r.fields[name]; ok {
		return st.Value.Clone()
	}
	return schema.Value{}
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := &Record{
		schema: r.schema,
		fields: make(map[string]*FieldState, len(r.fields)),
	}
	for name, st := range r.fields {
		c.fields[name] = st.clone()
	}
	return c
}

// Resolve rewrites a contextual reference such as 同上 to the most recent confirmed
// value of the same field. It reports false when v is a reference with nothing to refer to.
func (r *Record) Resolve(name string, v schema.Value) (schema.Value, bool) {
	if !r.isReference(v) {
		return v, true
	}
	st, ok := r.fields[name]
	if !ok {
		return schema.Value{}, false
	}
	if st.Status == StatusConfirmed && !st.Value.IsZero() {
		return st.Value.Clone(), true
	}
	if n := len(st.History); n > 0 {
		return st.History[n-1].Clone(), true
	}
	return schema.Value{}, false
}

func (r *Record) isReference(v schema.Value) bool {
	text := v.Text
	if len(v.Items) == 1 {
		text = v.Items[0]
	} else if len(v.Items) > 1 {
		return false
	}
	text = strings.ToLower(strings.TrimSpace(text))
	for _, ref := range r.schema.References {
		if text == strings.ToLower(ref) {
			return true
		}
	}
	return false
}

// Apply merges extracted values for the active stage. Fields of other stages are
// ignored; a confirmed field receiving an equal value is left untouched.
func (r *Record) Apply(stage schema.StageID, values map[string]schema.Value) []Change {
	st, ok := r.schema.Stage(stage)
	if !ok {
		return nil
	}

	var changes []Change
	for _, f := range st.Fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		v = f.Coerce(v)
		if v.IsZero() {
			continue
		}
		if v, ok = r.Resolve(f.Name, v); !ok {
			continue
		}

		fs := r.fields[f.Name]
		switch fs.Status {
		case StatusConfirmed:
			if fs.Value.Equal(v) {
				continue
			}
			fs.Candidate = v.Clone()
			changes = append(changes, Change{Field: f.Name, Prev: fs.Value.Clone(), Next: v, Conflict: true})
			continue
		case StatusAnomaly:
			if fs.Kind != AnomalyMalformed {
				continue
			}
		}

		prev := fs.Value.Clone()
		fs.Value = v.Clone()
		fs.Status = StatusExtracted
		fs.Kind = AnomalyNone
		fs.Reason = ""
		fs.Candidate = schema.Value{}
		changes = append(changes, Change{Field: f.Name, Prev: prev, Next: v})
	}
	return changes
}

// Verdict is the validator's decision for one field.
type Verdict struct {
	Field  string
	OK     bool
	Value  schema.Value // canonical value when OK
	Kind   AnomalyKind
	Reason string
}

// Outcome collects the verdicts of one validation pass.
type Outcome struct {
	Verdicts []Verdict
}

// Anomalies returns the verdicts that raised an anomaly.
func (o Outcome) Anomalies() []Verdict {
	var out []Verdict
	for _, v := range o.Verdicts {
		if !v.OK {
			out = append(out, v)
		}
	}
	return out
}

// Settle writes validator verdicts. It returns the fields that became confirmed.
func (r *Record) Settle(o Outcome) []string {
	var confirmed []string
	for _, v := range o.Verdicts {
		fs, ok := r.fields[v.Field]
		if !ok {
			continue
		}
		if v.OK {
			if fs.Status == StatusConfirmed && (v.Value.IsZero() || fs.Value.Equal(v.Value)) {
				continue
			}
			if !v.Value.IsZero() {
				fs.Value = v.Value.Clone()
			}
			fs.Status = StatusConfirmed
			fs.Kind = AnomalyNone
			fs.Reason = ""
			fs.Candidate = schema.Value{}
			fs.FormatErrors = 0
			fs.remember(fs.Value)
			confirmed = append(confirmed, v.Field)
			continue
		}

		fs.Status = StatusAnomaly
		fs.Kind = v.Kind
		fs.Reason = v.Reason
		fs.Overridden = false
		if v.Kind == AnomalyMalformed {
			fs.Candidate = fs.Value
			fs.Value = schema.Value{}
			fs.FormatErrors++
		}
	}
	return confirmed
}

// Correct overwrites a field of any stage and confirms it. v must already be
// normalized and type-checked.
func (r *Record) Correct(name string, v schema.Value) error {
	fs, ok := r.fields[name]
	if !ok {
		return fmt.Errorf("correct %q: %w", name, ErrUnknownField)
	}
	if v.IsZero() {
		return fmt.Errorf("correct %q: empty value: %w", name, ErrMalformedValue)
	}
	fs.Value = v.Clone()
	fs.Status = StatusConfirmed
	fs.Kind = AnomalyNone
	fs.Reason = ""
	fs.Candidate = schema.Value{}
	fs.FormatErrors = 0
	fs.Overridden = false
	fs.remember(v)
	return nil
}

// Override accepts the current values of the stage's range and conflict anomalies.
// Malformed values cannot be overridden. It returns the fields it confirmed.
func (r *Record) Override(stage schema.StageID) []string {
	st, ok := r.schema.Stage(stage)
	if !ok {
		return nil
	}
	var out []string
	for _, f := range st.Fields {
		fs := r.fields[f.Name]
		if fs.Status != StatusAnomaly || fs.Kind == AnomalyMalformed {
			continue
		}
		fs.Status = StatusConfirmed
		fs.Kind = AnomalyNone
		fs.Reason = ""
		fs.Candidate = schema.Value{}
		fs.Overridden = true
		fs.remember(fs.Value)
		out = append(out, f.Name)
	}
	return out
}

// Skip marks unset fields as skipped.
func (r *Record) Skip(names []string) {
	for _, name := range names {
		if fs, ok := r.fields[name]; ok && fs.Status == StatusUnset {
			fs.Status = StatusSkipped
		}
	}
}

// Pending returns the stage's fields that still need an answer, required fields
// first, each group in declaration order.
func (r *Record) Pending(stage schema.StageID) []schema.Field {
	st, ok := r.schema.Stage(stage)
	if !ok {
		return nil
	}
	var required, optional []schema.Field
	for _, f := range st.Fields {
		switch r.fields[f.Name].Status {
		case StatusConfirmed, StatusSkipped:
			continue
		}
		if f.Required {
			required = append(required, f)
		} else {
			optional = append(optional, f)
		}
	}
	return append(required, optional...)
}

// Anomalies returns the names of the stage's fields in anomaly status.
func (r *Record) Anomalies(stage schema.StageID) []string {
	st, ok := r.schema.Stage(stage)
	if !ok {
		return nil
	}
	var out []string
	for _, f := range st.Fields {
		if r.fields[f.Name].Status == StatusAnomaly {
			out = append(out, f.Name)
		}
	}
	return out
}

// Unset returns the names of the given fields whose status is still unset.
func (r *Record) Unset(fields []schema.Field) []string {
	var out []string
	for _, f := range fields {
		if r.fields[f.Name].Status == StatusUnset {
			out = append(out, f.Name)
		}
	}
	return slices.Clip(out)
}
