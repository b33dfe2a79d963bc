// Package utils provides small helpers shared by the HTTP and service layers
// for reading and bounding page sizes.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s (surrounding spaces ignored) as an int and returns
// def when s is blank or not a valid integer.
//
//	utils.AtoiDefault("42", 0)  // 42
//	utils.AtoiDefault(" 7 ", 0) // 7
//	utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampLimit resolves a requested page size: values <= 0 select def, and the
// result never exceeds max when max > 0. A def <= 0 falls back to 1.
func ClampLimit(n, def, max int) int {
	if def <= 0 {
		def = 1
	}
	if n <= 0 {
		n = def
	}
	if max > 0 && n > max {
		n = max
	}
	return n
}
