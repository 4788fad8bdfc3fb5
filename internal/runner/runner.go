package runner

import (
	"context"

	"github.com/cutekitek/rankode-grader/internal/repository/dto"
	"github.com/cutekitek/rankode-grader/internal/repository/models"
)

type Runner interface {
	// Synchronously runs a script until it exits or its timeout elapses. Launch
	// failures, crashes and timeouts are reported in the result; the error is
	// reserved for requests that cannot be run at all.
	Run(context.Context, *dto.RunRequest) (*models.ExecutionResult, error)
}
