package matcher

import (
	"regexp"
	"strings"

	"github.com/cutekitek/rankode-grader/internal/repository/models"
)

// Match tests every pattern against output independently and returns one
// outcome per pattern in the same order.
func Match(output string, patterns []models.Pattern) []models.PatternOutcome {
	outcomes := make([]models.PatternOutcome, 0, len(patterns))
	for _, p := range patterns {
		outcomes = append(outcomes, MatchOne(output, p))
	}
	return outcomes
}

// MatchOne searches output for p as a multi-line regular expression, so ^ and
// $ match at line boundaries while . never crosses one. A pattern that does not
// compile is looked up as a plain substring instead.
func MatchOne(output string, p models.Pattern) models.PatternOutcome {
	re, err := regexp.Compile("(?m)" + string(p))
	if err != nil {
		return models.PatternOutcome{
			Pattern: p,
			Found:   strings.Contains(output, string(p)),
			Literal: true,
		}
	}
	return models.PatternOutcome{Pattern: p, Found: re.MatchString(output)}
}

func Passed(outcomes []models.PatternOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Found {
			n++
		}
	}
	return n
}
