package validate

import (
	"fmt"
	"strings"

	"github.com/muhammadolammi/cvbuilder/internal/record"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

const (
	ReasonRange       = "end date precedes start date"
	ReasonUnparseable = "unparseable date"
	ReasonConflict    = "conflicting values"
)

// Detector type-checks field values and flags inconsistencies between them.
type Detector struct {
	schema  *schema.Schema
	aliases map[string]string
}

func New(s *schema.Schema) *Detector {
	aliases := make(map[string]string, len(s.Aliases))
	for short, full := range s.Aliases {
		aliases[strings.ToLower(short)] = full
	}
	return &Detector{schema: s, aliases: aliases}
}

// Alias expands a known short name to its full registered name.
func (d *Detector) Alias(s string) string {
	s = strings.TrimSpace(s)
	if full, ok := d.aliases[strings.ToLower(s)]; ok {
		return full
	}
	return s
}

// Normalize rewrites extracted values before they are applied: aliases are expanded,
// list items trimmed and deduplicated, parseable dates put in canonical form.
// Values that cannot be normalized are passed through for Validate to judge.
func (d *Detector) Normalize(values map[string]schema.Value) map[string]schema.Value {
	out := make(map[string]schema.Value, len(values))
	for name, v := range values {
		f, ok := d.schema.Field(name)
		if !ok {
			continue
		}
		out[name] = d.normalize(f, v)
	}
	return out
}

func (d *Detector) normalize(f schema.Field, v schema.Value) schema.Value {
	v = f.Coerce(v)
	switch f.Type {
	case schema.TypeList:
		seen := make(map[string]bool, len(v.Items))
		items := make([]string, 0, len(v.Items))
		for _, it := range v.Items {
			it = strings.TrimSpace(it)
			if f.Alias {
				it = d.Alias(it)
			}
			if it == "" || seen[it] {
				continue
			}
			seen[it] = true
			items = append(items, it)
		}
		return schema.List(items...)
	case schema.TypeDate:
		if ym, err := ParseYearMonth(v.Text, f.AllowPresent); err == nil {
			return schema.Text(ym.String())
		}
		return schema.Text(strings.TrimSpace(v.Text))
	default:
		text := strings.TrimSpace(v.Text)
		if f.Alias {
			text = d.Alias(text)
		}
		return schema.Text(text)
	}
}

// Check type-checks v against f and returns its canonical form.
func (d *Detector) Check(f schema.Field, v schema.Value) (schema.Value, error) {
	v = d.normalize(f, v)
	if v.IsZero() {
		return schema.Value{}, fmt.Errorf("%s: empty value: %w", f.Name, record.ErrMalformedValue)
	}
	if f.Type == schema.TypeDate {
		ym, err := ParseYearMonth(v.Text, f.AllowPresent)
		if err != nil {
			return schema.Value{}, fmt.Errorf("%s: %v: %w", f.Name, err, record.ErrMalformedValue)
		}
		return schema.Text(ym.String()), nil
	}
	return v, nil
}

// Validate judges the fields written by one Apply call and re-checks every date
// range they take part in.
func (d *Detector) Validate(rec *record.Record, changes []record.Change) record.Outcome {
	o := &outcome{index: make(map[string]int)}

	for _, c := range changes {
		f, ok := d.schema.Field(c.Field)
		if !ok {
			continue
		}
		if c.Conflict {
			o.set(record.Verdict{
				Field:  c.Field,
				Kind:   record.AnomalyConflict,
				Reason: fmt.Sprintf("%s: %q vs %q", ReasonConflict, c.Prev.String(), c.Next.String()),
			})
			continue
		}
		canon, err := d.Check(f, c.Next)
		if err != nil {
			reason := "invalid value"
			if f.Type == schema.TypeDate {
				reason = ReasonUnparseable
			}
			o.set(record.Verdict{Field: c.Field, Kind: record.AnomalyMalformed, Reason: reason})
			continue
		}
		o.set(record.Verdict{Field: c.Field, OK: true, Value: canon})
	}

	seen := make(map[schema.DateRange]bool)
	for _, c := range changes {
		r, ok := d.schema.RangeOf(c.Field)
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		d.checkRange(rec, r, o)
	}
	return record.Outcome{Verdicts: o.verdicts}
}

func (d *Detector) checkRange(rec *record.Record, r schema.DateRange, o *outcome) {
	start, okStart := d.effective(rec, r.Start, o)
	end, okEnd := d.effective(rec, r.End, o)
	if !okStart || !okEnd {
		return
	}

	if end.Before(start) {
		for _, name := range []string{r.Start, r.End} {
			o.set(record.Verdict{Field: name, Kind: record.AnomalyRange, Reason: ReasonRange})
		}
		return
	}

	// A consistent range clears an earlier range anomaly on the other field.
	for _, name := range []string{r.Start, r.End} {
		st, _ := rec.State(name)
		if _, judged := o.index[name]; !judged && st.Status == record.StatusAnomaly && st.Kind == record.AnomalyRange {
			o.set(record.Verdict{Field: name, OK: true})
		}
	}
}

// effective returns the date a field will hold after this pass, if it is a usable date.
func (d *Detector) effective(rec *record.Record, name string, o *outcome) (YearMonth, bool) {
	f, _ := d.schema.Field(name)
	if i, ok := o.index[name]; ok {
		v := o.verdicts[i]
		if !v.OK && v.Kind != record.AnomalyRange {
			return YearMonth{}, false
		}
		if v.OK && !v.Value.IsZero() {
			ym, err := ParseYearMonth(v.Value.Text, f.AllowPresent)
			return ym, err == nil
		}
	}

	st, ok := rec.State(name)
	if !ok {
		return YearMonth{}, false
	}
	switch {
	case st.Status == record.StatusConfirmed, st.Status == record.StatusExtracted:
	case st.Status == record.StatusAnomaly && st.Kind == record.AnomalyRange:
	default:
		return YearMonth{}, false
	}
	ym, err := ParseYearMonth(st.Value.Text, f.AllowPresent)
	return ym, err == nil
}

type outcome struct {
	verdicts []record.Verdict
	index    map[string]int
}

func (o *outcome) set(v record.Verdict) {
	if i, ok := o.index[v.Field]; ok {
		o.verdicts[i] = v
		return
	}
	o.index[v.Field] = len(o.verdicts)
	o.verdicts = append(o.verdicts, v)
}
