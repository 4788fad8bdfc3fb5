package analyzer

import (
	"strings"

	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/repository/models"
)

const DefaultLongLineWords = 100

type Config struct {
	// Lines with more words than this are reported
	LongLineWords    int
	BannedConstructs []string
}

func DefaultConfig() Config {
	return Config{
		LongLineWords:    DefaultLongLineWords,
		BannedConstructs: DefaultConstructs,
	}
}

// Analyzer is immutable after construction and safe for concurrent use.
type Analyzer struct {
	longLineWords int
	banned        []construct
}

func NewAnalyzer(cfg Config) (*Analyzer, error) {
	a := &Analyzer{longLineWords: cfg.LongLineWords}
	if a.longLineWords <= 0 {
		a.longLineWords = DefaultLongLineWords
	}
	seen := make(map[string]bool)
	for _, name := range cfg.BannedConstructs {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		c, ok := constructs[name]
		if !ok {
			return nil, config.Errorf("banned constructs", "unknown construct %q, known: %s", name, strings.Join(Constructs(), ", "))
		}
		seen[name] = true
		a.banned = append(a.banned, c)
	}
	return a, nil
}

// Analyze never fails. Source it cannot scan cleanly still gets line based
// results, and the trouble spots are listed in Warnings.
func (a *Analyzer) Analyze(source string) *models.AnalysisResult {
	lines, warnings := scan(source)

	findings := []models.Finding{models.CommentCount(countComments(lines))}
	findings = append(findings, a.longLines(lines)...)
	findings = append(findings, a.bannedConstructs(lines)...)
	findings = append(findings, multiReturnFunctions(lines)...)

	return &models.AnalysisResult{Findings: findings, Warnings: warnings}
}

func countComments(lines []sourceLine) int {
	n := 0
	for _, l := range lines {
		if l.comment {
			n++
		}
	}
	return n
}

func (a *Analyzer) longLines(lines []sourceLine) []models.Finding {
	var findings []models.Finding
	for _, l := range lines {
		if words := len(strings.Fields(l.text)); words > a.longLineWords {
			findings = append(findings, models.LongLine(l.number, words))
		}
	}
	return findings
}

// One finding per construct per line, in line order.
func (a *Analyzer) bannedConstructs(lines []sourceLine) []models.Finding {
	var findings []models.Finding
	for _, l := range lines {
		for _, c := range a.banned {
			for i := range l.tokens {
				if c.match(l.tokens, i) {
					findings = append(findings, models.BannedConstruct(c.Name, l.number))
					break
				}
			}
		}
	}
	return findings
}
