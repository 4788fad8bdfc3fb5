package models

import (
	"fmt"
	"time"
)

type ErrorKind int8

const (
	ErrorKindNone          ErrorKind = iota
	ErrorKindTimeout       ErrorKind = iota
	ErrorKindRuntimeError  ErrorKind = iota
	ErrorKindLaunchFailure ErrorKind = iota
)

var errorKindNames = map[ErrorKind]string{
	ErrorKindNone:          "none",
	ErrorKindTimeout:       "timeout",
	ErrorKindRuntimeError:  "runtime_error",
	ErrorKindLaunchFailure: "launch_failure",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error_kind(%d)", int8(k))
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(text []byte) error {
	for kind, name := range errorKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// ExecutionResult is the outcome of running a submission once.
// ExitStatus is nil when the process never started or was killed on timeout.
type ExecutionResult struct {
	Succeeded       bool          `json:"succeeded" yaml:"succeeded"`
	Stdout          string        `json:"stdout" yaml:"stdout"`
	Stderr          string        `json:"stderr" yaml:"stderr"`
	ExitStatus      *int          `json:"exit_status,omitempty" yaml:"exit_status,omitempty"`
	ErrorKind       ErrorKind     `json:"error_kind" yaml:"error_kind"`
	ErrorMessage    string        `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Duration        time.Duration `json:"duration" yaml:"duration"`
	CPUTime         time.Duration `json:"cpu_time" yaml:"cpu_time"`
	MemoryUsage     int64         `json:"memory_usage" yaml:"memory_usage"`
	OutputTruncated bool          `json:"output_truncated,omitempty" yaml:"output_truncated,omitempty"`
}
