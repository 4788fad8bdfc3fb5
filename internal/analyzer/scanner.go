package analyzer

import (
	"fmt"
	"strings"
)

type tokenKind int8

const (
	tokName   tokenKind = iota
	tokNumber tokenKind = iota
	tokString tokenKind = iota
	tokOp     tokenKind = iota
)

type token struct {
	kind tokenKind
	text string
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

type sourceLine struct {
	number int
	text   string
	// Code tokens. String literals appear as a single tokString without
	// their contents; comments are dropped.
	tokens  []token
	comment bool
	indent  int
	// logical is set when the line starts a new statement, i.e. it does not
	// begin inside a string, inside brackets or after a backslash.
	logical bool
}

type scanState int8

const (
	stateNormal  scanState = iota
	stateString  scanState = iota
	stateComment scanState = iota
)

const tabSize = 8

// scanner is a small lexer for Python source. It only knows enough of the
// grammar to tell code from string literals and comments, so it never
// rejects input: anything it cannot make sense of becomes a warning.
type scanner struct {
	state     scanState
	quote     byte
	triple    bool
	stringAt  int
	depth     int
	continued bool

	lines    []sourceLine
	warnings []string
}

func scan(source string) ([]sourceLine, []string) {
	source = strings.TrimPrefix(source, "\ufeff")
	raw := strings.Split(source, "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	s := &scanner{lines: make([]sourceLine, 0, len(raw))}
	for i, text := range raw {
		s.scanLine(i+1, strings.TrimSuffix(text, "\r"))
	}
	if s.state == stateString {
		s.warn("unterminated string literal starting on line %d", s.stringAt)
	}
	if s.depth > 0 {
		s.warn("%d unclosed bracket(s) at end of file", s.depth)
	}
	return s.lines, s.warnings
}

func (s *scanner) warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

func (s *scanner) scanLine(number int, text string) {
	line := sourceLine{number: number, text: text}
	continuation := s.state == stateString || s.depth > 0 || s.continued
	s.continued = false
	if s.state == stateComment {
		s.state = stateNormal
	}

	escapedEOL := false
	for j := 0; j < len(text); {
		switch s.state {
		case stateString:
			j, escapedEOL = s.scanString(text, j, &line)
		case stateComment:
			j = len(text)
		default:
			j = s.scanCode(text, j, &line)
		}
	}

	if s.state == stateString && !s.triple && !escapedEOL {
		s.warn("unterminated string literal on line %d", s.stringAt)
		s.state = stateNormal
	}

	line.indent = indentWidth(text)
	line.logical = !continuation && len(line.tokens) > 0
	s.lines = append(s.lines, line)
}

func (s *scanner) scanString(text string, j int, line *sourceLine) (int, bool) {
	c := text[j]
	switch {
	case c == '\\':
		// the escaped character never closes the literal, raw or not
		if j+1 >= len(text) {
			return j + 1, true
		}
		return j + 2, false
	case c != s.quote:
		return j + 1, false
	case !s.triple:
		s.state = stateNormal
		line.tokens = append(line.tokens, token{kind: tokString})
		return j + 1, false
	case strings.HasPrefix(text[j:], strings.Repeat(string(s.quote), 3)):
		s.state = stateNormal
		line.tokens = append(line.tokens, token{kind: tokString})
		return j + 3, false
	default:
		return j + 1, false
	}
}

func (s *scanner) scanCode(text string, j int, line *sourceLine) int {
	c := text[j]
	switch {
	case c == ' ' || c == '\t' || c == '\f':
		return j + 1
	case c == '#':
		line.comment = true
		s.state = stateComment
		return len(text)
	case c == '\\':
		if strings.TrimSpace(text[j+1:]) == "" {
			s.continued = true
			return len(text)
		}
		line.tokens = append(line.tokens, token{kind: tokOp, text: "\\"})
		return j + 1
	case c == '\'' || c == '"':
		return s.openString(text, j, line.number)
	case isIdentStart(c):
		end := j + 1
		for end < len(text) && isIdentPart(text[end]) {
			end++
		}
		word := text[j:end]
		if end < len(text) && (text[end] == '\'' || text[end] == '"') && isStringPrefix(word) {
			return s.openString(text, end, line.number)
		}
		line.tokens = append(line.tokens, token{kind: tokName, text: word})
		return end
	case isDigit(c) || (c == '.' && j+1 < len(text) && isDigit(text[j+1])):
		end := j + 1
		for end < len(text) && (isIdentPart(text[end]) || text[end] == '.') {
			end++
		}
		line.tokens = append(line.tokens, token{kind: tokNumber, text: text[j:end]})
		return end
	case strings.IndexByte("([{", c) >= 0:
		s.depth++
	case strings.IndexByte(")]}", c) >= 0:
		if s.depth > 0 {
			s.depth--
		}
	}
	line.tokens = append(line.tokens, token{kind: tokOp, text: string(c)})
	return j + 1
}

func (s *scanner) openString(text string, j, lineNumber int) int {
	s.state = stateString
	s.quote = text[j]
	s.stringAt = lineNumber
	s.triple = strings.HasPrefix(text[j:], strings.Repeat(string(s.quote), 3))
	if s.triple {
		return j + 3
	}
	return j + 1
}

func indentWidth(text string) int {
	width := 0
	for _, c := range text {
		switch c {
		case ' ':
			width++
		case '\t':
			width += tabSize - width%tabSize
		case '\f':
			width = 0
		default:
			return width
		}
	}
	return width
}

func isStringPrefix(word string) bool {
	switch strings.ToLower(word) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
