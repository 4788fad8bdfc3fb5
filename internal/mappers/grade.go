package mappers

import (
	"time"

	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/repository/dto"
	"github.com/cutekitek/rankode-grader/internal/repository/models"
)

// GradeTaskToRequest builds the grading request for a task whose code is
// already staged at scriptPath. A zero task timeout falls back to
// defaultTimeout.
func GradeTaskToRequest(task *dto.GradeTask, scriptPath, source string, defaultTimeout time.Duration) *dto.GradeRequest {
	timeout := time.Duration(task.Timeout) * time.Millisecond
	if task.Timeout <= 0 {
		timeout = defaultTimeout
	}
	return &dto.GradeRequest{
		ScriptPath: scriptPath,
		Source:     source,
		Input:      task.Input,
		Patterns:   models.NewPatterns(task.Patterns),
		Timeout:    timeout,
	}
}

func ReportToGradeResponse(task *dto.GradeTask, report *models.Report) *dto.GradeResponse {
	return &dto.GradeResponse{
		Id:     task.Id,
		Status: dto.GradeStatusComplete,
		Report: report,
	}
}

// ErrorToGradeResponse reports a task that could not be graded. Bad task
// contents are told apart from failures of the worker itself.
func ErrorToGradeResponse(task *dto.GradeTask, err error) *dto.GradeResponse {
	status := dto.GradeStatusInternalError
	if config.IsConfigurationError(err) {
		status = dto.GradeStatusInvalidTask
	}
	return &dto.GradeResponse{
		Id:     task.Id,
		Status: status,
		Error:  err.Error(),
	}
}
