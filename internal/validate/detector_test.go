package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/cvbuilder/internal/record"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

func pass(t *testing.T, d *Detector, rec *record.Record, stage schema.StageID, values map[string]schema.Value) record.Outcome {
	t.Helper()
	changes := rec.Apply(stage, d.Normalize(values))
	o := d.Validate(rec, changes)
	rec.Settle(o)
	return o
}

func TestNormalizeExpandsAliases(t *testing.T) {
	d := New(schema.Default())

	out := d.Normalize(map[string]schema.Value{
		"school_name":         schema.Text(" 臺大 "),
		"department_name":     schema.Text("臺大"),
		"school_start_date":   schema.Text("2019/9"),
		"good_at_skills_name": schema.Text("Go、 Go ,SQL"),
		"not_a_field":         schema.Text("x"),
	})

	assert.Equal(t, "國立台灣大學", out["school_name"].Text)
	assert.Equal(t, "臺大", out["department_name"].Text, "only alias fields are rewritten")
	assert.Equal(t, "2019-09", out["school_start_date"].Text)
	assert.Equal(t, []string{"Go", "SQL"}, out["good_at_skills_name"].Items)
	assert.NotContains(t, out, "not_a_field")
}

func TestValidateRangeFlagsExactlyBothFields(t *testing.T) {
	s := schema.Default()
	d := New(s)
	rec := record.New(s)

	o := pass(t, d, rec, schema.Education, map[string]schema.Value{
		"school_name":       schema.Text("國立成功大學"),
		"school_start_date": schema.Text("2025-06"),
		"school_end_date":   schema.Text("2023-09"),
	})

	anomalies := o.Anomalies()
	require.Len(t, anomalies, 2)
	for _, a := range anomalies {
		assert.Equal(t, record.AnomalyRange, a.Kind)
		assert.Equal(t, ReasonRange, a.Reason)
	}
	assert.ElementsMatch(t, []string{"school_start_date", "school_end_date"}, rec.Anomalies(schema.Education))
	assert.Equal(t, record.StatusConfirmed, rec.Status("school_name"))
}

func TestValidateRangeAgainstConfirmedPartner(t *testing.T) {
	s := schema.Default()
	d := New(s)
	rec := record.New(s)

	pass(t, d, rec, schema.Work, map[string]schema.Value{"term_start_date": schema.Text("2022-03")})
	require.Equal(t, record.StatusConfirmed, rec.Status("term_start_date"))

	pass(t, d, rec, schema.Work, map[string]schema.Value{"term_end_date": schema.Text("2021-01")})
	assert.ElementsMatch(t, []string{"term_start_date", "term_end_date"}, rec.Anomalies(schema.Work))
}

func TestValidateOpenEndDate(t *testing.T) {
	s := schema.Default()
	d := New(s)
	rec := record.New(s)

	o := pass(t, d, rec, schema.Work, map[string]schema.Value{
		"term_start_date": schema.Text("2022-03"),
		"term_end_date":   schema.Text("now"),
	})

	assert.Empty(t, o.Anomalies())
	assert.Equal(t, schema.Present, rec.Value("term_end_date").Text)
}

func TestValidateMalformedDate(t *testing.T) {
	s := schema.Default()
	d := New(s)
	rec := record.New(s)

	o := pass(t, d, rec, schema.Education, map[string]schema.Value{"school_start_date": schema.Text("去年秋天")})

	require.Len(t, o.Anomalies(), 1)
	st, _ := rec.State("school_start_date")
	assert.Equal(t, record.StatusAnomaly, st.Status)
	assert.Equal(t, record.AnomalyMalformed, st.Kind)
	assert.Equal(t, ReasonUnparseable, st.Reason)
	assert.True(t, st.Value.IsZero(), "malformed value must not be stored as the field value")
	assert.Equal(t, "去年秋天", st.Candidate.Text)
	assert.Equal(t, 1, st.FormatErrors)

	pass(t, d, rec, schema.Education, map[string]schema.Value{"school_start_date": schema.Text("2019-09")})
	assert.Equal(t, record.StatusConfirmed, rec.Status("school_start_date"))
}

func TestValidateConflict(t *testing.T) {
	s := schema.Default()
	d := New(s)
	rec := record.New(s)

	pass(t, d, rec, schema.Work, map[string]schema.Value{"company_name": schema.Text("台積電")})
	o := pass(t, d, rec, schema.Work, map[string]schema.Value{"company_name": schema.Text("聯發科")})

	require.Len(t, o.Anomalies(), 1)
	st, _ := rec.State("company_name")
	assert.Equal(t, record.AnomalyConflict, st.Kind)
	assert.Contains(t, st.Reason, "台灣積體電路製造股份有限公司")
	assert.Contains(t, st.Reason, "聯發科技股份有限公司")
	assert.Equal(t, "台灣積體電路製造股份有限公司", st.Value.Text)
}

func TestRangeRecoveryClearsPartner(t *testing.T) {
	s := schema.Default()
	d := New(s)
	rec := record.New(s)

	pass(t, d, rec, schema.Education, map[string]schema.Value{
		"school_start_date": schema.Text("2025-06"),
		"school_end_date":   schema.Text("2023-09"),
	})

	canon, err := d.Check(mustField(t, s, "school_start_date"), schema.Text("2019-09"))
	require.NoError(t, err)
	require.NoError(t, rec.Correct("school_start_date", canon))
	rec.Settle(d.Validate(rec, []record.Change{{Field: "school_start_date", Next: canon}}))

	assert.Empty(t, rec.Anomalies(schema.Education))
	assert.Equal(t, record.StatusConfirmed, rec.Status("school_end_date"))
}

func TestCheck(t *testing.T) {
	s := schema.Default()
	d := New(s)

	_, err := d.Check(mustField(t, s, "school_start_date"), schema.Text("2023"))
	assert.ErrorIs(t, err, record.ErrMalformedValue)

	_, err = d.Check(mustField(t, s, "school_name"), schema.Text("  "))
	assert.ErrorIs(t, err, record.ErrMalformedValue)

	v, err := d.Check(mustField(t, s, "school_end_date"), schema.Text("至今"))
	require.NoError(t, err)
	assert.Equal(t, schema.Present, v.Text)
}

func mustField(t *testing.T, s *schema.Schema, name string) schema.Field {
	t.Helper()
	f, ok := s.Field(name)
	require.True(t, ok)
	return f
}
