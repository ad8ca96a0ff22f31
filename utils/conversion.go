package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a user-entered decimal. Blank, NaN and infinite values are rejected.
func ParseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("value is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return v, nil
}

// ParseTruncatedInt parses a decimal and truncates it toward zero, so "3.7" becomes 3.
func ParseTruncatedInt(raw string) (int, error) {
	v, err := ParseNumber(raw)
	if err != nil {
		return 0, err
	}
	t := math.Trunc(v)
	if t > math.MaxInt32 || t < math.MinInt32 {
		return 0, fmt.Errorf("%q is out of range", raw)
	}
	return int(t), nil
}

// JoinVector serializes a feature vector as comma-joined text.
func JoinVector(vector []float64) string {
	parts := make([]string, len(vector))
	for i, f := range vector {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// SplitVector parses comma-joined text back into a feature vector.
func SplitVector(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}
