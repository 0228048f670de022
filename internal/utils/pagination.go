// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault parses s as an int, falling back to def when s is empty or
// not a valid integer. Used for optional numeric query parameters such as
// the report listing limit.
//
// Example:
//
//	n := utils.AtoiDefault("5", 0) // returns 5
//	n = utils.AtoiDefault("", 5)   // returns 5
//	n = utils.AtoiDefault("x", 5)  // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
