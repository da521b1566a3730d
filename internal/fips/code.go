package fips

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseCode reads a leading integer from s. Leading whitespace and a sign
// are accepted and anything after the digits is ignored, so "25001",
// " 25001.0" and "25001 (est)" all yield 25001. It reports false when s
// has no leading digits.
func ParseCode(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// CodeOf coerces a decoded property or cell value to a FIPS code.
// Numbers are truncated; strings go through ParseCode.
func CodeOf(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int(x), true
	case json.Number:
		return ParseCode(x.String())
	case string:
		return ParseCode(x)
	default:
		return 0, false
	}
}
