// Package rangemode decides whether a listing is a bounded 0-100 numeric
// control rather than a set of branchable children.
package rangemode

import (
	"math"
	"strconv"
	"strings"
)

const (
	Min = 0
	Max = 100

	// MinCount is how many numeric entries a listing needs before it is
	// treated as a range.
	MinCount = 50
)

type Info struct {
	IsRange bool
	// Extras are the non-numeric entries in listing order. Empty unless
	// IsRange.
	Extras []string
}

// Analyze partitions items into integers within [Min, Max] and the rest.
// The listing is a range only when the numeric entries span exactly Min to
// Max and there are at least MinCount of them.
func Analyze(items []string) Info {
	count := 0
	lo, hi := Max+1, Min-1
	extras := []string{}
	for _, item := range items {
		n, ok := parse(item)
		if !ok {
			extras = append(extras, item)
			continue
		}
		count++
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	if count == 0 {
		return Info{Extras: []string{}}
	}
	if lo == Min && hi == Max && count >= MinCount {
		return Info{IsRange: true, Extras: extras}
	}
	return Info{Extras: []string{}}
}

// parse accepts any whole number within bounds, written as an integer,
// decimal or exponent. Surrounding whitespace is ignored and a blank entry
// counts as 0.
func parse(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < Min || f > Max {
		return 0, false
	}
	return int(f), true
}
