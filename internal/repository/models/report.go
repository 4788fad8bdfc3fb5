package models

type Summary struct {
	PatternsPassed int `json:"patterns_passed" yaml:"patterns_passed"`
	PatternsTotal  int `json:"patterns_total" yaml:"patterns_total"`
	IssuesFound    int `json:"issues_found" yaml:"issues_found"`
}

// Report is the complete result of one grading run. It is built once by the
// grader and only read afterwards.
type Report struct {
	ID        string           `json:"id" yaml:"id"`
	Script    string           `json:"script" yaml:"script"`
	Execution ExecutionResult  `json:"execution" yaml:"execution"`
	Patterns  []PatternOutcome `json:"patterns" yaml:"patterns"`
	Analysis  AnalysisResult   `json:"analysis" yaml:"analysis"`
	Summary   Summary          `json:"summary" yaml:"summary"`
}
