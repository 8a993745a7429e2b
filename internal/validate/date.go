package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

var presentTokens = []string{schema.Present, "迄今", "現在", "目前", "在職中", "在學中", "present", "now", "current", "ongoing"}

var (
	ymPattern    = regexp.MustCompile(`^(\d{4})\s*[-/.]\s*(\d{1,2})(?:\s*[-/.]\s*\d{1,2})?$`)
	myPattern    = regexp.MustCompile(`^(\d{1,2})\s*[-/.]\s*(\d{4})$`)
	cjkPattern   = regexp.MustCompile(`^(\d{4})\s*年\s*(\d{1,2})\s*月(?:\s*\d{1,2}\s*日)?$`)
	named        = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{4})$`)
	minYear      = 1900
	maxYear      = 2100
	monthsByName = map[string]int{}
)

func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		monthsByName[name] = int(m)
		monthsByName[name[:3]] = int(m)
	}
	monthsByName["sept"] = 9
}

// YearMonth is a date at month granularity. Open marks an end date that is still ongoing.
type YearMonth struct {
	Year  int
	Month int
	Open  bool
}

func (ym YearMonth) String() string {
	if ym.Open {
		return schema.Present
	}
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Before reports whether ym is chronologically before o. An open date is after everything.
func (ym YearMonth) Before(o YearMonth) bool {
	switch {
	case ym.Open:
		return false
	case o.Open:
		return true
	}
	return ym.Year*12+ym.Month < o.Year*12+o.Month
}

// IsPresent reports whether s names an open-ended date such as 至今.
func IsPresent(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, tok := range presentTokens {
		if s == tok {
			return true
		}
	}
	return false
}

// ParseYearMonth parses s to at least year-month granularity.
func ParseYearMonth(s string, allowPresent bool) (YearMonth, error) {
	s = strings.TrimSpace(s)
	if IsPresent(s) {
		if !allowPresent {
			return YearMonth{}, fmt.Errorf("%q is not allowed for this date", s)
		}
		return YearMonth{Open: true}, nil
	}

	var year, month string
	if m := ymPattern.FindStringSubmatch(s); m != nil {
		year, month = m[1], m[2]
	} else if m := cjkPattern.FindStringSubmatch(s); m != nil {
		year, month = m[1], m[2]
	} else if m := myPattern.FindStringSubmatch(s); m != nil {
		year, month = m[2], m[1]
	} else if m := named.FindStringSubmatch(s); m != nil {
		n, ok := monthsByName[strings.ToLower(m[1])]
		if !ok {
			return YearMonth{}, fmt.Errorf("unknown month %q", m[1])
		}
		year, month = m[2], strconv.Itoa(n)
	} else {
		return YearMonth{}, fmt.Errorf("%q is not a year-month date", s)
	}

	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	if y < minYear || y > maxYear {
		return YearMonth{}, fmt.Errorf("year %d out of range", y)
	}
	if mo < 1 || mo > 12 {
		return YearMonth{}, fmt.Errorf("month %d out of range", mo)
	}
	return YearMonth{Year: y, Month: mo}, nil
}
