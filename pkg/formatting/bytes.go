// Package formatting parses and renders human-readable byte sizes.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Base-1024 unit ladder; the index doubles as the 1024 exponent.
var units = []string{
	"B", "KB", "MB",
	"GB", "TB", "PB",
	"EB", "ZB", "YB",
}

var sizePattern = regexp.MustCompile(`^(\d+\.?\d*)\s*([A-Za-z]*)$`)

// FormatBytes renders n with the largest unit that keeps the value above 1.
// Negative precision clamps to zero decimal places.
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}
	if precision < 0 {
		precision = 0
	}

	exp := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if exp >= len(units) {
		exp = len(units) - 1
	}

	scaled := float64(n) / math.Pow(1024, float64(exp))
	return strconv.FormatFloat(scaled, 'f', precision, 64) + " " + units[exp]
}

// ParseBytes reads strings like "4MB" or "1.5 GB" into a byte count.
// Units are case-insensitive, the space is optional, and a bare number
// means bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	unit := strings.ToUpper(m[2])
	if unit == "" {
		return int64(value), nil
	}

	exp := slices.Index(units, unit)
	if exp == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}
	return int64(value * math.Pow(1024, float64(exp))), nil
}
