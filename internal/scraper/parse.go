package scraper

import (
	"math"
	"strconv"
	"strings"
)

// ParsePrice parses the floating-point number at the start of s, the way
// scanf's %lf does: leading whitespace is skipped, then the longest prefix
// that forms a number is converted and the rest is ignored. It reports
// false when no prefix converts.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\v\f\r")

	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	if v, ok := parseSpecial(s[i:]); ok {
		if neg {
			v = -v
		}
		return v, true
	}

	end := scanDecimal(s, i)
	if end < 0 {
		return 0, false
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// Out of range values still convert to ±Inf or 0, like strtod
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return v, true
		}
		return 0, false
	}
	return v, true
}

// scanDecimal returns the end of the number that starts at i in s, or -1
func scanDecimal(s string, i int) int {
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return -1
	}

	// An exponent only counts when digits follow it
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func parseSpecial(s string) (float64, bool) {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "inf"):
		return math.Inf(1), true
	case strings.HasPrefix(lower, "nan"):
		return math.NaN(), true
	}
	return 0, false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
