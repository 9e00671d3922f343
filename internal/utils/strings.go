package utils

import (
	"strings"
)

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeSeat trims and upper-cases a seat number ("l1 " -> "L1").
func NormalizeSeat(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// DuplicateSeats returns seat numbers that appear more than once after normalization.
func DuplicateSeats(seats []string) []string {
	seen := map[string]int{}
	dups := []string{}
	for _, s := range seats {
		n := NormalizeSeat(s)
		seen[n]++
		if seen[n] == 2 {
			dups = append(dups, n)
		}
	}
	return dups
}
