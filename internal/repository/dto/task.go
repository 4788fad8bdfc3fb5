package dto

import "github.com/cutekitek/rankode-grader/internal/repository/models"

// GradeTask is the queue message asking a worker to grade one submission.
// Either Code or SourceObject (an s3://bucket/key reference) must be set.
type GradeTask struct {
	Id           string   `json:"id"`
	Code         string   `json:"code,omitempty"`
	SourceObject string   `json:"source_object,omitempty"`
	Input        []string `json:"input"`
	Patterns     []string `json:"patterns"`
	// Milliseconds, zero means the worker default
	Timeout int `json:"timeout"`
}

type GradeStatus int8

const (
	GradeStatusComplete      GradeStatus = iota
	GradeStatusInvalidTask   GradeStatus = iota
	GradeStatusInternalError GradeStatus = iota
)

type GradeResponse struct {
	Id     string         `json:"id"`
	Status GradeStatus    `json:"status"`
	Error  string         `json:"error,omitempty"`
	Report *models.Report `json:"report,omitempty"`
}
