package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

func confirmAll(r *Record, changes []Change) {
	var o Outcome
	for _, c := range changes {
		if c.Conflict {
			o.Verdicts = append(o.Verdicts, Verdict{Field: c.Field, Kind: AnomalyConflict, Reason: "conflicting values"})
			continue
		}
		o.Verdicts = append(o.Verdicts, Verdict{Field: c.Field, OK: true, Value: c.Next})
	}
	r.Settle(o)
}

func TestNewRecordStartsUnset(t *testing.T) {
	r := New(schema.Default())
	for _, f := range r.Schema().Fields() {
		assert.Equal(t, StatusUnset, r.Status(f.Name), f.Name)
	}
	assert.Equal(t, Status(""), r.Status("nope"))
}

func TestApplyWritesExtracted(t *testing.T) {
	r := New(schema.Default())

	changes := r.Apply(schema.Education, map[string]schema.Value{
		"school_name":     schema.Text("國立成功大學"),
		"company_name":    schema.Text("ignored: other stage"),
		"department_name": schema.Text(""),
	})

	require.Len(t, changes, 1)
	assert.Equal(t, "school_name", changes[0].Field)
	assert.Equal(t, StatusExtracted, r.Status("school_name"))
	assert.Equal(t, StatusUnset, r.Status("company_name"))
	assert.Equal(t, StatusUnset, r.Status("department_name"))
}

func TestApplyIsIdempotentOnConfirmedFields(t *testing.T) {
	r := New(schema.Default())
	in := map[string]schema.Value{
		"school_name":      schema.Text("國立成功大學"),
		"education_levels": schema.List("大學"),
	}
	confirmAll(r, r.Apply(schema.Education, in))
	before, _ := r.State("school_name")

	changes := r.Apply(schema.Education, in)

	assert.Empty(t, changes)
	after, _ := r.State("school_name")
	assert.Equal(t, before, after)
	assert.Equal(t, StatusConfirmed, r.Status("education_levels"))
}

func TestApplyConflictKeepsConfirmedValue(t *testing.T) {
	r := New(schema.Default())
	confirmAll(r, r.Apply(schema.Work, map[string]schema.Value{"company_name": schema.Text("A")}))

	changes := r.Apply(schema.Work, map[string]schema.Value{"company_name": schema.Text("B")})

	require.Len(t, changes, 1)
	assert.True(t, changes[0].Conflict)
	assert.Equal(t, "A", changes[0].Prev.Text)
	assert.Equal(t, "B", changes[0].Next.Text)
	assert.Equal(t, "A", r.Value("company_name").Text)

	confirmAll(r, changes)
	st, _ := r.State("company_name")
	assert.Equal(t, StatusAnomaly, st.Status)
	assert.Equal(t, "B", st.Candidate.Text)

	// Further extractions do not touch a field waiting for the user.
	assert.Empty(t, r.Apply(schema.Work, map[string]schema.Value{"company_name": schema.Text("C")}))
}

func TestResolveReferences(t *testing.T) {
	r := New(schema.Default())

	_, ok := r.Resolve("company_name", schema.Text("同上"))
	assert.False(t, ok, "nothing to refer to yet")
	assert.Empty(t, r.Apply(schema.Work, map[string]schema.Value{"company_name": schema.Text("同上間公司")}))

	confirmAll(r, r.Apply(schema.Work, map[string]schema.Value{"company_name": schema.Text("台灣人工智慧科技")}))

	v, ok := r.Resolve("company_name", schema.Text("Same company"))
	require.True(t, ok)
	assert.Equal(t, "台灣人工智慧科技", v.Text)

	v, ok = r.Resolve("company_name", schema.Text("新創公司"))
	require.True(t, ok)
	assert.Equal(t, "新創公司", v.Text)

	assert.Empty(t, r.Apply(schema.Work, map[string]schema.Value{"company_name": schema.Text("同上")}),
		"a reference to the confirmed value is not a change")
}

func TestCorrectAcrossStages(t *testing.T) {
	r := New(schema.Default())
	confirmAll(r, r.Apply(schema.Education, map[string]schema.Value{
		"school_name":     schema.Text("國立成功大學"),
		"department_name": schema.Text("電機工程學系"),
	}))
	snapshot := r.Clone()

	require.NoError(t, r.Correct("department_name", schema.Text("資訊工程學系")))

	assert.Equal(t, "資訊工程學系", r.Value("department_name").Text)
	assert.Equal(t, StatusConfirmed, r.Status("department_name"))
	for _, f := range r.Schema().Fields() {
		if f.Name == "department_name" {
			continue
		}
		want, _ := snapshot.State(f.Name)
		got, _ := r.State(f.Name)
		assert.Equal(t, want, got, f.Name)
	}

	st, _ := r.State("department_name")
	require.Len(t, st.History, 2)
	assert.Equal(t, "電機工程學系", st.History[0].Text)
}

func TestCorrectErrors(t *testing.T) {
	r := New(schema.Default())
	assert.ErrorIs(t, r.Correct("nope", schema.Text("x")), ErrUnknownField)
	assert.ErrorIs(t, r.Correct("school_name", schema.Value{}), ErrMalformedValue)
	assert.Equal(t, StatusUnset, r.Status("school_name"))
}

func TestOverride(t *testing.T) {
	r := New(schema.Default())
	r.Apply(schema.Education, map[string]schema.Value{
		"school_start_date": schema.Text("2025-06"),
		"school_end_date":   schema.Text("2023-09"),
		"school_name":       schema.Text("x"),
	})
	r.Settle(Outcome{Verdicts: []Verdict{
		{Field: "school_start_date", Kind: AnomalyRange, Reason: "end date precedes start date"},
		{Field: "school_end_date", Kind: AnomalyRange, Reason: "end date precedes start date"},
		{Field: "school_name", Kind: AnomalyMalformed, Reason: "invalid value"},
	}})

	got := r.Override(schema.Education)

	assert.Equal(t, []string{"school_start_date", "school_end_date"}, got)
	st, _ := r.State("school_end_date")
	assert.Equal(t, StatusConfirmed, st.Status)
	assert.True(t, st.Overridden)
	assert.Equal(t, "2023-09", st.Value.Text)
	assert.Equal(t, StatusAnomaly, r.Status("school_name"), "malformed values cannot be overridden")
}

func TestPendingOrdersRequiredFirst(t *testing.T) {
	r := New(schema.Default())
	confirmAll(r, r.Apply(schema.Work, map[string]schema.Value{"company_name": schema.Text("A")}))

	var names []string
	for _, f := range r.Pending(schema.Work) {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"job_category", "term_start_date", "term_end_date", "hope_work_cities", "hope_job_title"}, names)
}

func TestSkipOnlyTouchesUnset(t *testing.T) {
	r := New(schema.Default())
	confirmAll(r, r.Apply(schema.Skills, map[string]schema.Value{"good_at_languages": schema.List("英文")}))

	r.Skip([]string{"good_at_skills_name", "good_at_languages"})

	assert.Equal(t, StatusSkipped, r.Status("good_at_skills_name"))
	assert.Equal(t, StatusConfirmed, r.Status("good_at_languages"))
}

func TestCloneIsDeep(t *testing.T) {
	r := New(schema.Default())
	confirmAll(r, r.Apply(schema.Skills, map[string]schema.Value{"good_at_skills_name": schema.List("Go")}))

	c := r.Clone()
	require.NoError(t, c.Correct("good_at_skills_name", schema.List("Rust")))

	assert.Equal(t, []string{"Go"}, r.Value("good_at_skills_name").Items)
	assert.Equal(t, r, r.Clone())
	assert.Equal(t, New(schema.Default()), New(schema.Default()).Clone(), "empty histories stay nil")
}

func TestSummary(t *testing.T) {
	r := New(schema.Default())
	confirmAll(r, r.Apply(schema.Work, map[string]schema.Value{
		"company_name":  schema.Text("A"),
		"term_end_date": schema.Text(schema.Present),
	}))
	r.Skip([]string{"job_category"})

	sum := r.Summary(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	require.Len(t, sum.Fields, 14)
	assert.Equal(t, 14, sum.Completeness) // 2 of 14
	assert.Equal(t, 3, sum.RemainingOptional)
	assert.Equal(t, EmploymentCurrent, sum.Employment)
	assert.Equal(t, map[string]schema.Value{
		"company_name":  schema.Text("A"),
		"term_end_date": schema.Text(schema.Present),
	}, sum.Values())

	byName := map[string]Entry{}
	for _, e := range sum.Fields {
		byName[e.Name] = e
	}
	assert.Equal(t, StatusSkipped, byName["job_category"].Status)
	assert.Equal(t, StatusUnset, byName["school_name"].Status)
}

func TestSummaryFormerEmployment(t *testing.T) {
	r := New(schema.Default())
	confirmAll(r, r.Apply(schema.Work, map[string]schema.Value{"term_end_date": schema.Text("2024-05")}))

	sum := r.Summary(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, EmploymentFormer, sum.Employment)
}
