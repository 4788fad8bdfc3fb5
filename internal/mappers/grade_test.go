package mappers

import (
	"testing"
	"time"

	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/repository/dto"
	"github.com/cutekitek/rankode-grader/internal/repository/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestGradeTaskToRequest(t *testing.T) {
	task := &dto.GradeTask{
		Id:       "task-1",
		Input:    []string{"John Doe"},
		Patterns: []string{"Hello, .+!", "Result: 42"},
		Timeout:  1500,
	}

	req := GradeTaskToRequest(task, "/tmp/x/main.py", "print(1)\n", 5*time.Second)

	assert.Equal(t, &dto.GradeRequest{
		ScriptPath: "/tmp/x/main.py",
		Source:     "print(1)\n",
		Input:      []string{"John Doe"},
		Patterns:   []models.Pattern{"Hello, .+!", "Result: 42"},
		Timeout:    1500 * time.Millisecond,
	}, req)

	task.Timeout = 0
	assert.Equal(t, 5*time.Second, GradeTaskToRequest(task, "main.py", "", 5*time.Second).Timeout)
}

func TestReportToGradeResponse(t *testing.T) {
	report := &models.Report{ID: "r", Script: "main.py"}

	resp := ReportToGradeResponse(&dto.GradeTask{Id: "task-1"}, report)

	assert.Equal(t, "task-1", resp.Id)
	assert.Equal(t, dto.GradeStatusComplete, resp.Status)
	assert.Same(t, report, resp.Report)
	assert.Empty(t, resp.Error)
}

func TestErrorToGradeResponse(t *testing.T) {
	task := &dto.GradeTask{Id: "task-1"}

	invalid := ErrorToGradeResponse(task, errors.Wrap(config.Errorf("patterns", "at least one expected pattern is required"), "grade"))
	assert.Equal(t, dto.GradeStatusInvalidTask, invalid.Status)
	assert.Contains(t, invalid.Error, "patterns")
	assert.Nil(t, invalid.Report)

	internal := ErrorToGradeResponse(task, errors.New("disk full"))
	assert.Equal(t, dto.GradeStatusInternalError, internal.Status)
	assert.Equal(t, "task-1", internal.Id)
}
