package analyzer

import (
	"sort"
	"strconv"
	"strings"
)

type construct struct {
	Name        string
	Description string
	// match reports whether the construct starts at tokens[i]
	match func(tokens []token, i int) bool
}

var constructs = map[string]construct{}

func register(c construct) {
	constructs[c.Name] = c
}

func init() {
	register(construct{Name: "break", Description: "Use of 'break' statement", match: keyword("break")})
	register(construct{Name: "continue", Description: "Use of 'continue' statement", match: keyword("continue")})
	register(construct{Name: "while-true", Description: "Use of 'while True' infinite loop", match: alwaysTrueLoop})
	register(construct{Name: "global", Description: "Use of 'global' statement", match: keyword("global")})
	register(construct{Name: "nonlocal", Description: "Use of 'nonlocal' statement", match: keyword("nonlocal")})
	register(construct{Name: "pass", Description: "Use of 'pass' placeholder", match: keyword("pass")})
}

// DefaultConstructs are banned unless configured otherwise.
var DefaultConstructs = []string{"break", "continue", "while-true"}

// Constructs lists every construct name that can be banned.
func Constructs() []string {
	names := make([]string, 0, len(constructs))
	for name := range constructs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a human readable description for a construct name.
func Describe(name string) string {
	if c, ok := constructs[name]; ok {
		return c.Description
	}
	return "Use of '" + name + "'"
}

func keyword(word string) func([]token, int) bool {
	return func(tokens []token, i int) bool {
		return tokens[i].is(tokName, word)
	}
}

// alwaysTrueLoop matches `while True:`, `while 1:`, `while not False:` and
// the same conditions wrapped in parentheses.
func alwaysTrueLoop(tokens []token, i int) bool {
	if !tokens[i].is(tokName, "while") {
		return false
	}
	j := i + 1
	parens := 0
	for j < len(tokens) && tokens[j].is(tokOp, "(") {
		parens++
		j++
	}

	var cond []token
	for j < len(tokens) && !tokens[j].is(tokOp, ")") && !tokens[j].is(tokOp, ":") {
		cond = append(cond, tokens[j])
		j++
	}
	for ; parens > 0; parens-- {
		if j >= len(tokens) || !tokens[j].is(tokOp, ")") {
			return false
		}
		j++
	}
	if j >= len(tokens) || !tokens[j].is(tokOp, ":") {
		return false
	}

	switch len(cond) {
	case 1:
		return cond[0].is(tokName, "True") || (cond[0].kind == tokNumber && nonZero(cond[0].text))
	case 2:
		if !cond[0].is(tokName, "not") {
			return false
		}
		return cond[1].is(tokName, "False") || (cond[1].kind == tokNumber && !nonZero(cond[1].text))
	}
	return false
}

func nonZero(literal string) bool {
	literal = strings.ReplaceAll(literal, "_", "")
	if v, err := strconv.ParseInt(literal, 0, 64); err == nil {
		return v != 0
	}
	if v, err := strconv.ParseFloat(literal, 64); err == nil {
		return v != 0
	}
	// something exotic like a complex literal, assume truthy
	return true
}
