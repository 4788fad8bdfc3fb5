package grader

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/cutekitek/rankode-grader/internal/analyzer"
	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/matcher"
	"github.com/cutekitek/rankode-grader/internal/repository/dto"
	"github.com/cutekitek/rankode-grader/internal/repository/models"
	"github.com/cutekitek/rankode-grader/internal/runner"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Grader runs the whole pipeline for one submission. It holds no per-run
// state, so Grade may be called from many goroutines at once.
type Grader struct {
	runner   runner.Runner
	analyzer *analyzer.Analyzer
}

func NewGrader(r runner.Runner, a *analyzer.Analyzer) *Grader {
	return &Grader{runner: r, analyzer: a}
}

// Grade returns an error only for a request that cannot be graded at all.
// A submission that fails to start, crashes or times out still gets a full
// report.
func (g *Grader) Grade(ctx context.Context, req *dto.GradeRequest) (*models.Report, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	execRes, err := g.runner.Run(ctx, &dto.RunRequest{
		ScriptPath: req.ScriptPath,
		Input:      req.Input,
		Timeout:    req.Timeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to run submission")
	}

	outcomes := matcher.Match(execRes.Stdout, req.Patterns)
	analysis := g.analyzer.Analyze(req.Source)

	report := &models.Report{
		ID:        uuid.NewString(),
		Script:    filepath.Base(req.ScriptPath),
		Execution: *execRes,
		Patterns:  outcomes,
		Analysis:  *analysis,
		Summary: models.Summary{
			PatternsPassed: matcher.Passed(outcomes),
			PatternsTotal:  len(outcomes),
			IssuesFound:    analysis.IssueCount(),
		},
	}

	slog.Info("graded submission", "id", report.ID, "script", report.Script, "kind", execRes.ErrorKind,
		"passed", report.Summary.PatternsPassed, "total", report.Summary.PatternsTotal, "issues", report.Summary.IssuesFound)

	return report, nil
}

func validate(req *dto.GradeRequest) error {
	if req == nil {
		return config.Errorf("request", "is nil")
	}
	if req.ScriptPath == "" {
		return config.Errorf("script", "path is empty")
	}
	if req.Timeout <= 0 {
		return config.Errorf("timeout", "must be positive, got %s", req.Timeout)
	}
	if len(req.Patterns) == 0 {
		return config.Errorf("patterns", "at least one expected pattern is required")
	}
	return nil
}
