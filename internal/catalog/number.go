package catalog

import (
	"strconv"
	"strings"
)

const maxAmount = 9999999999999.99

// ParseNumber reads numbers the way Turkish ERP exports write them:
// "1.234,56" and "8,258.90" are both thousands-separated, "12,5" is a
// decimal comma and "1,234" is a thousands comma. Blank or garbled input
// yields 0, false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Count(s, ",") > 2 || strings.Count(s, ".") > 2 {
		return 0, false
	}

	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, s)

	hasComma, hasDot := strings.Contains(s, ","), strings.Contains(s, ".")
	switch {
	case hasComma && !hasDot:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = parts[0] + "." + parts[1]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if v > maxAmount {
		v = maxAmount
	} else if v < -maxAmount {
		v = -maxAmount
	}
	return v, true
}
