package analyzer

import (
	"sort"

	"github.com/cutekitek/rankode-grader/internal/repository/models"
)

type function struct {
	name    string
	line    int
	indent  int
	returns int
}

// multiReturnFunctions follows `def` blocks by indentation. A function's body
// ends at the first statement indented no deeper than its def, and every
// return is credited to the innermost function still open, so nested
// functions are counted separately from their parents.
func multiReturnFunctions(lines []sourceLine) []models.Finding {
	var open, closed []*function

	for _, l := range lines {
		if len(l.tokens) == 0 {
			continue
		}
		if l.logical {
			for len(open) > 0 && l.indent <= open[len(open)-1].indent {
				closed = append(closed, open[len(open)-1])
				open = open[:len(open)-1]
			}
		}

		for i := 0; i < len(l.tokens); i++ {
			t := l.tokens[i]
			switch {
			case t.is(tokName, "def") && isStatementStart(l.tokens, i) && i+1 < len(l.tokens) && l.tokens[i+1].kind == tokName:
				open = append(open, &function{name: l.tokens[i+1].text, line: l.number, indent: l.indent})
				i++
			case t.is(tokName, "return") && len(open) > 0:
				open[len(open)-1].returns++
			}
		}
	}
	closed = append(closed, open...)

	sort.SliceStable(closed, func(i, j int) bool { return closed[i].line < closed[j].line })

	var findings []models.Finding
	for _, f := range closed {
		if f.returns > 1 {
			findings = append(findings, models.MultiReturnFunction(f.name, f.line, f.returns))
		}
	}
	return findings
}

func isStatementStart(tokens []token, i int) bool {
	return i == 0 || (i == 1 && tokens[0].is(tokName, "async"))
}
