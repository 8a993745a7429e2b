package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchema(t *testing.T) {
	s := Default()

	require.Len(t, s.Stages, 3)
	assert.Equal(t, Education, s.First())
	assert.Len(t, s.Fields(), 14)

	edu, ok := s.Stage(Education)
	require.True(t, ok)
	assert.Len(t, edu.Fields, 6)
	assert.Len(t, edu.Required(), 6)

	work, _ := s.Stage(Work)
	assert.Len(t, work.Required(), 4)

	f, ok := s.Field("term_end_date")
	require.True(t, ok)
	assert.Equal(t, TypeDate, f.Type)
	assert.Equal(t, Work, f.Stage)
	assert.True(t, f.AllowPresent)
}

func TestStageOrder(t *testing.T) {
	s := Default()

	assert.Equal(t, Work, s.Next(Education))
	assert.Equal(t, Skills, s.Next(Work))
	assert.Equal(t, Complete, s.Next(Skills))
	assert.Equal(t, Complete, s.Next(Complete))
	assert.Less(t, s.Index(Education), s.Index(Work))
	assert.Equal(t, 3, s.Index(Complete))
}

func TestLookup(t *testing.T) {
	s := Default()

	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"school_name", "school_name", true},
		{"學校名稱", "school_name", true},
		{" 科系名稱 ", "department_name", true},
		{"科系", "department_name", true},
		{"期間", "", false}, // matches four labels
		{"x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f, ok := s.Lookup(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, f.Name)
		})
	}
}

func TestRangeOf(t *testing.T) {
	s := Default()

	r, ok := s.RangeOf("school_end_date")
	require.True(t, ok)
	assert.Equal(t, DateRange{Start: "school_start_date", End: "school_end_date"}, r)

	_, ok = s.RangeOf("school_name")
	assert.False(t, ok)
}

func TestParseRejectsBadSchemas(t *testing.T) {
	tests := map[string]string{
		"no stages":  "stages: []",
		"bad type":   "stages:\n  - id: a\n    fields:\n      - name: x\n        type: number\n",
		"duplicate":  "stages:\n  - id: a\n    fields:\n      - {name: x, type: string}\n      - {name: x, type: string}\n",
		"bad range":  "stages:\n  - id: a\n    fields:\n      - {name: x, type: string}\n    ranges:\n      - {start: x, end: y}\n",
		"complete":   "stages:\n  - id: complete\n",
		"not yaml":   "stages: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestValueEqualIgnoresListOrder(t *testing.T) {
	assert.True(t, List("Go", "SQL").Equal(List("SQL", "Go", "Go")))
	assert.False(t, List("Go").Equal(List("Go", "SQL")))
	assert.True(t, Text("a").Equal(Text("a")))
	assert.False(t, Text("a").Equal(Text("b")))
}

func TestDecode(t *testing.T) {
	s := Default()
	skills, _ := s.Field("good_at_skills_name")
	school, _ := s.Field("school_name")

	v, err := skills.Decode(json.RawMessage(`"Go、Python, SQL"`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Python", "SQL"}, v.Items)

	v, err = skills.Decode(json.RawMessage(`["Go"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, v.Items)

	v, err = school.Decode(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = school.Decode(json.RawMessage(`2023`))
	require.NoError(t, err)
	assert.Equal(t, "2023", v.Text)
}
