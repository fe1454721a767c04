package stix

import (
	"regexp"
	"strings"
)

// patternRe matches the single comparison form the converter itself emits:
// [<type>:value = '<value>']. Anchored, so compound expressions fail.
var patternRe = regexp.MustCompile(`^\[([a-z0-9_-]+):value\s*=\s*'([^']+)'\]$`)

// PatternMatch is the observable extracted from a simple STIX pattern.
type PatternMatch struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ParsePattern extracts {type, value} from a pattern like
// [ipv4-addr:value = '203.0.113.5']. Boolean combinators, multiple
// comparisons, non-value properties and double-quoted literals are outside
// the supported subset and return nil. nil means "could not extract an IOC
// value", never an error.
func ParsePattern(pattern string) *PatternMatch {
	m := patternRe.FindStringSubmatch(strings.TrimSpace(pattern))
	if m == nil {
		return nil
	}
	return &PatternMatch{Type: m[1], Value: m[2]}
}
