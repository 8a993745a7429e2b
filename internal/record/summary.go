package record

import (
	"time"

	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

const (
	EmploymentCurrent = "在職"
	EmploymentFormer  = "離職"
)

// Entry is one field of the final record.
type Entry struct {
	Name       string         `json:"name"`
	Label      string         `json:"label"`
	Stage      schema.StageID `json:"stage"`
	Value      schema.Value   `json:"value"`
	Status     Status         `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Overridden bool           `json:"overridden,omitempty"`
}

// Summary is the structured output of a session, one entry per schema field.
type Summary struct {
	Fields            []Entry `json:"fields"`
	Completeness      int     `json:"completeness"`
	RemainingOptional int     `json:"remaining_optional"`
	Employment        string  `json:"employment_status,omitempty"`
}

// Values returns the populated values keyed by field name.
func (s Summary) Values() map[string]schema.Value {
	out := make(map[string]schema.Value)
	for _, e := range s.Fields {
		if e.Status == StatusConfirmed {
			out[e.Name] = e.Value
		}
	}
	return out
}

// Summary builds the final record. now is used to derive the employment status.
func (r *Record) Summary(now time.Time) Summary {
	var (
		out       Summary
		confirmed int
	)
	for _, f := range r.schema.Fields() {
		fs := r.fields[f.Name]
		e := Entry{
			Name:       f.Name,
			Label:      f.Label,
			Stage:      f.Stage,
			Status:     fs.Status,
			Reason:     fs.Reason,
			Overridden: fs.Overridden,
		}
		// Anomalies keep their value out of the summary unless the user accepted it.
		if fs.Status == StatusConfirmed {
			e.Value = fs.Value.Clone()
			confirmed++
		} else if !f.Required {
			out.RemainingOptional++
		}
		out.Fields = append(out.Fields, e)
	}
	if n := len(out.Fields); n > 0 {
		out.Completeness = confirmed * 100 / n
	}
	out.Employment = r.employment(now)
	return out
}

func (r *Record) employment(now time.Time) string {
	fs, ok := r.fields["term_end_date"]
	if !ok || fs.Status != StatusConfirmed {
		return ""
	}
	end := fs.Value.Text
	if end == schema.Present || end >= now.Format("2006-01") {
		return EmploymentCurrent
	}
	return EmploymentFormer
}
