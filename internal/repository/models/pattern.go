package models

// Pattern is an expected output snippet, tried as a regular expression first
// and as a plain substring when it does not compile.
type Pattern string

type PatternOutcome struct {
	Pattern Pattern `json:"pattern" yaml:"pattern"`
	Found   bool    `json:"found" yaml:"found"`
	// Literal is set when the pattern was not a valid regular expression
	// and substring containment was used instead.
	Literal bool `json:"literal,omitempty" yaml:"literal,omitempty"`
}

func NewPatterns(raw []string) []Pattern {
	patterns := make([]Pattern, 0, len(raw))
	for _, p := range raw {
		patterns = append(patterns, Pattern(p))
	}
	return patterns
}
