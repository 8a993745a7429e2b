package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchema []byte

type StageID string

const (
	Education StageID = "education"
	Work      StageID = "work"
	Skills    StageID = "skills"
	Complete  StageID = "complete"
)

type FieldType string

const (
	TypeString FieldType = "string"
	TypeDate   FieldType = "date"
	TypeList   FieldType = "list"
)

// Field is one named, typed slot of the resume record.
type Field struct {
	Name         string    `yaml:"name"`
	Label        string    `yaml:"label"`
	Type         FieldType `yaml:"type"`
	Required     bool      `yaml:"required"`
	AllowPresent bool      `yaml:"allow_present"`
	Alias        bool      `yaml:"alias"`
	Question     string    `yaml:"question"`
	Sentence     string    `yaml:"sentence"`

	Stage StageID `yaml:"-"`
}

// DateRange pairs a start and end date field of the same stage.
type DateRange struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// StageDefinition describes one stage of the dialogue.
type StageDefinition struct {
	ID          StageID     `yaml:"id"`
	Title       string      `yaml:"title"`
	Progress    int         `yaml:"progress"`
	MinTurns    int         `yaml:"min_turns"`
	Opening     string      `yaml:"opening"`
	Instruction string      `yaml:"instruction"`
	Fields      []Field     `yaml:"fields"`
	Ranges      []DateRange `yaml:"ranges"`
}

// Required returns the required fields of the stage in declaration order.
func (d *StageDefinition) Required() []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Has reports whether the stage owns the named field.
func (d *StageDefinition) Has(name string) bool {
	for _, f := range d.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Schema is the static definition of all stages and fields.
type Schema struct {
	Stages     []StageDefinition `yaml:"stages"`
	Aliases    map[string]string `yaml:"aliases"`
	References []string          `yaml:"references"`

	fields map[string]Field
	order  []string
}

// Parse decodes and checks a YAML schema document.
func Parse(data []byte) (*Schema, error) {
	s := &Schema{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if len(s.Stages) == 0 {
		return nil, fmt.Errorf("schema has no stages")
	}

	s.fields = make(map[string]Field)
	for i := range s.Stages {
		st := &s.Stages[i]
		if st.ID == "" || st.ID == Complete {
			return nil, fmt.Errorf("stage %d: invalid id %q", i, st.ID)
		}
		if st.MinTurns < 1 {
			st.MinTurns = 1
		}
		for j := range st.Fields {
			f := &st.Fields[j]
			f.Stage = st.ID
			switch f.Type {
			case TypeString, TypeDate, TypeList:
			default:
				return nil, fmt.Errorf("field %s: unknown type %q", f.Name, f.Type)
			}
			if _, dup := s.fields[f.Name]; dup {
				return nil, fmt.Errorf("field %s declared twice", f.Name)
			}
			if f.Label == "" {
				f.Label = f.Name
			}
			s.fields[f.Name] = *f
			s.order = append(s.order, f.Name)
		}
		for _, r := range st.Ranges {
			for _, name := range []string{r.Start, r.End} {
				f, ok := s.fields[name]
				if !ok || f.Stage != st.ID || f.Type != TypeDate {
					return nil, fmt.Errorf("stage %s: range field %q must be a date of the same stage", st.ID, name)
				}
			}
		}
	}
	return s, nil
}

var loadDefault = sync.OnceValues(func() (*Schema, error) {
	return Parse(defaultSchema)
})

// Default returns the embedded resume schema.
func Default() *Schema {
	s, err := loadDefault()
	if err != nil {
		panic("schema: embedded schema is invalid: " + err.Error())
	}
	return s
}

// First returns the id of the first stage.
func (s *Schema) First() StageID {
	return s.Stages[0].ID
}

// Next returns the stage that follows id, or Complete after the last one.
func (s *Schema) Next(id StageID) StageID {
	for i, st := range s.Stages {
		if st.ID == id {
			if i+1 < len(s.Stages) {
				return s.Stages[i+1].ID
			}
			return Complete
		}
	}
	return Complete
}

// Index returns the position of id in stage order. Complete sorts last.
func (s *Schema) Index(id StageID) int {
	for i, st := range s.Stages {
		if st.ID == id {
			return i
		}
	}
	return len(s.Stages)
}

func (s *Schema) Stage(id StageID) (*StageDefinition, bool) {
	for i := range s.Stages {
		if s.Stages[i].ID == id {
			return &s.Stages[i], true
		}
	}
	return nil, false
}

func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Lookup finds a field by name or display label, ignoring case and surrounding spaces.
func (s *Schema) Lookup(key string) (Field, bool) {
	key = strings.TrimSpace(key)
	if f, ok := s.fields[key]; ok {
		return f, true
	}
	for _, name := range s.order {
		f := s.fields[name]
		if strings.EqualFold(f.Label, key) || strings.EqualFold(f.Name, key) {
			return f, true
		}
	}
	// Partial labels such as 科系 match only when unambiguous.
	if len([]rune(key)) < 2 {
		return Field{}, false
	}
	var (
		match Field
		n     int
	)
	for _, name := range s.order {
		f := s.fields[name]
		if strings.Contains(f.Label, key) {
			match = f
			n++
		}
	}
	if n != 1 {
		return Field{}, false
	}
	return match, true
}

// Fields returns every field in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}
	return out
}

// RangeOf returns the date range a field belongs to, if any.
func (s *Schema) RangeOf(name string) (DateRange, bool) {
	f, ok := s.fields[name]
	if !ok {
		return DateRange{}, false
	}
	st, _ := s.Stage(f.Stage)
	for _, r := range st.Ranges {
		if r.Start == name || r.End == name {
			return r, true
		}
	}
	return DateRange{}, false
}
