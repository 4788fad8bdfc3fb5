package dto

import (
	"time"

	"github.com/cutekitek/rankode-grader/internal/repository/models"
)

type RunRequest struct {
	// Path to the script handed to the interpreter
	ScriptPath string
	// Lines written to stdin, one per input() call
	Input   []string
	Timeout time.Duration
}

type GradeRequest struct {
	ScriptPath string
	// Source text of ScriptPath, analyzed independently of the run
	Source   string
	Input    []string
	Patterns []models.Pattern
	Timeout  time.Duration
}
