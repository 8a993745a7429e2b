package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYearMonth(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2023-09", "2023-09"},
		{"2023/9", "2023-09"},
		{"2023.09", "2023-09"},
		{"2023-09-01", "2023-09"},
		{"2023年9月", "2023-09"},
		{"2023 年 09 月 15 日", "2023-09"},
		{"09/2023", "2023-09"},
		{"Sep 2023", "2023-09"},
		{"september 2023", "2023-09"},
		{" 2019-6 ", "2019-06"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ym, err := ParseYearMonth(tt.in, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ym.String())
		})
	}
}

func TestParseYearMonthRejects(t *testing.T) {
	for _, in := range []string{"", "2023", "去年", "2023-13", "1800-01", "Foo 2023", "2023-00"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseYearMonth(in, false)
			assert.Error(t, err)
		})
	}
}

func TestParseYearMonthPresent(t *testing.T) {
	ym, err := ParseYearMonth("至今", true)
	require.NoError(t, err)
	assert.True(t, ym.Open)
	assert.Equal(t, "至今", ym.String())

	ym, err = ParseYearMonth("Present", true)
	require.NoError(t, err)
	assert.True(t, ym.Open)

	_, err = ParseYearMonth("至今", false)
	assert.Error(t, err)
}

func TestYearMonthBefore(t *testing.T) {
	a := YearMonth{Year: 2023, Month: 9}
	b := YearMonth{Year: 2025, Month: 6}
	open := YearMonth{Open: true}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
	assert.True(t, b.Before(open))
	assert.False(t, open.Before(a))
}
