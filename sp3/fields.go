package sp3

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedField is returned when a fixed-width field is missing or is
// not a number.
var ErrMalformedField = errors.New("malformed field")

// field returns line[pos:pos+width], clipped at the end of the line. A field
// that starts past the end of the line is an error.
func field(line string, pos, width int) (string, error) {
	if pos > len(line) {
		return "", fmt.Errorf("%w: column %d beyond end of line (length %d)", ErrMalformedField, pos+1, len(line))
	}
	end := pos + width
	if end > len(line) {
		end = len(line)
	}
	return line[pos:end], nil
}

func floatField(line string, pos, width int) (float64, error) {
	raw, err := field(line, pos, width)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(raw)
	if !isDecimal(text) {
		return 0, fmt.Errorf("%w: columns %d-%d %q is not a number", ErrMalformedField, pos+1, pos+width, raw)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: columns %d-%d %q is not a number", ErrMalformedField, pos+1, pos+width, raw)
	}
	return v, nil
}

// isDecimal accepts plain decimal notation with an optional exponent.
// ParseFloat alone would also take NaN, Inf and hex floats.
func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	return strings.Trim(s, "0123456789+-.eE") == "" && strings.ContainsAny(s, "0123456789")
}

func intField(line string, pos, width int) (int, error) {
	raw, err := field(line, pos, width)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: columns %d-%d %q is not an integer", ErrMalformedField, pos+1, pos+width, raw)
	}
	return v, nil
}
