package process

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/criyle/go-sandbox/runner"
	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/repository/dto"
	"github.com/cutekitek/rankode-grader/internal/repository/models"
	"github.com/cutekitek/rankode-grader/pkg/shell"
	"github.com/pkg/errors"
)

// DefaultKillDelay bounds how long output is still drained once the script
// exited or was killed.
const DefaultKillDelay = 500 * time.Millisecond

type ProcessRunnerConfig struct {
	// Interpreter binary, python3 by default
	Interpreter string
	// Optional JSON file with "run" and "env", overrides Interpreter
	LanguageFile  string
	MaxOutputSize int64
	// DefaultKillDelay when not positive
	KillDelay time.Duration
}

// ProcessRunner runs scripts as plain child processes. It keeps no state
// between runs, so one instance can serve many goroutines.
type ProcessRunner struct {
	Config ProcessRunnerConfig
	lang   *languageConfig
}

func NewProcessRunner(cfg ProcessRunnerConfig) (*ProcessRunner, error) {
	if cfg.Interpreter == "" {
		cfg.Interpreter = "python3"
	}
	if cfg.KillDelay <= 0 {
		cfg.KillDelay = DefaultKillDelay
	}
	lang := pythonConfig(cfg.Interpreter)
	if cfg.LanguageFile != "" {
		var err error
		lang, err = NewLangConfigFromFile(cfg.LanguageFile)
		if err != nil {
			return nil, config.Wrap("language file", err)
		}
	}
	return &ProcessRunner{Config: cfg, lang: lang}, nil
}

// Version asks the interpreter for its version string.
func (r *ProcessRunner) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := shell.NewCommand(ctx, shell.Options{}, r.lang.RunCmd[0], "--version")
	out, err := cmd.RunAndCollectStdout()
	if err != nil {
		return "", errors.Wrapf(err, "failed to query %s", r.lang.RunCmd[0])
	}
	if out == "" {
		out = strings.TrimSpace(cmd.StdErr.String())
	}
	return out, nil
}

func (r *ProcessRunner) Run(ctx context.Context, req *dto.RunRequest) (*models.ExecutionResult, error) {
	if req.Timeout <= 0 {
		return nil, config.Errorf("timeout", "must be positive, got %s", req.Timeout)
	}
	if req.ScriptPath == "" {
		return nil, config.Errorf("script", "path is empty")
	}

	script, err := checkScript(req.ScriptPath)
	if err != nil {
		return launchFailure(err), nil
	}

	runCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	cr := &commandRunner{
		args: r.lang.args(script),
		opts: shell.Options{
			Dir:           filepath.Dir(script),
			Env:           r.lang.Env,
			Stdin:         joinInput(req.Input),
			MaxOutputSize: r.Config.MaxOutputSize,
			KillDelay:     r.Config.KillDelay,
		},
	}
	res := cr.Run(runCtx)
	execRes := cr.result(res, req.Timeout)

	slog.Debug("execution result", "script", script, "status", res.Status, "exitStatus", res.ExitStatus, "memory", res.Memory, "time", res.Time, "error", res.Error, "kind", execRes.ErrorKind)

	return execRes, nil
}

func checkScript(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve script path")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Wrap(err, "script is not accessible")
	}
	if info.IsDir() {
		return "", errors.Errorf("script %s is a directory", abs)
	}
	f, err := os.Open(abs)
	if err != nil {
		return "", errors.Wrap(err, "script is not readable")
	}
	f.Close()
	return abs, nil
}

// Each line is terminated so input() sees it, then stdin is closed and any
// further read gets EOF instead of blocking.
func joinInput(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func launchFailure(err error) *models.ExecutionResult {
	return &models.ExecutionResult{
		ErrorKind:    models.ErrorKindLaunchFailure,
		ErrorMessage: err.Error(),
	}
}

// commandRunner adapts one child process to the sandbox runner contract.
type commandRunner struct {
	args []string
	opts shell.Options
	cmd  *shell.Command
}

func (c *commandRunner) Run(ctx context.Context) runner.Result {
	c.cmd = shell.NewCommand(ctx, c.opts, c.args[0], c.args[1:]...)

	start := time.Now()
	err := c.cmd.Run()
	res := runner.Result{RunningTime: time.Since(start)}

	if state := c.cmd.Cmd.ProcessState; state != nil {
		res.Time = state.UserTime() + state.SystemTime()
		res.Memory = runner.Size(shell.MaxRSS(state))
		res.ExitStatus = state.ExitCode()
	}

	switch {
	case !c.cmd.Started():
		res.Status = runner.StatusRunnerError
		res.Error = fmt.Sprintf("failed to start %s: %v", c.args[0], err)
	case c.cmd.TimedOut():
		res.Status = runner.StatusTimeLimitExceeded
	case err == nil:
		res.Status = runner.StatusNormal
	case errors.Is(err, exec.ErrWaitDelay):
		// the script exited cleanly, something it spawned kept the pipes open
		// past KillDelay and was killed
		res.Status = runner.StatusNormal
	default:
		if sig, ok := shell.Signal(c.cmd.Cmd.ProcessState); ok {
			res.Status = runner.StatusSignalled
			res.ExitStatus = int(sig)
			res.Error = fmt.Sprintf("terminated by signal %s", sig)
		} else if c.cmd.Cmd.ProcessState != nil && !c.cmd.Cmd.ProcessState.Success() {
			res.Status = runner.StatusNonzeroExitStatus
			res.Error = fmt.Sprintf("exited with status %d", res.ExitStatus)
		} else {
			res.Status = runner.StatusRunnerError
			res.Error = err.Error()
		}
	}
	return res
}

func (c *commandRunner) result(res runner.Result, timeout time.Duration) *models.ExecutionResult {
	execRes := &models.ExecutionResult{
		Duration:    res.RunningTime,
		CPUTime:     res.Time,
		MemoryUsage: int64(res.Memory),
	}
	if !c.cmd.Started() {
		execRes.ErrorKind = models.ErrorKindLaunchFailure
		execRes.ErrorMessage = res.Error
		return execRes
	}

	execRes.Stdout = c.cmd.StdOut.String()
	execRes.Stderr = c.cmd.StdErr.String()
	execRes.OutputTruncated = c.cmd.StdOut.Truncated() || c.cmd.StdErr.Truncated()

	switch res.Status {
	case runner.StatusNormal:
		execRes.Succeeded = true
		execRes.ErrorKind = models.ErrorKindNone
		execRes.ExitStatus = intPtr(res.ExitStatus)
	case runner.StatusTimeLimitExceeded:
		execRes.ErrorKind = models.ErrorKindTimeout
		execRes.ErrorMessage = fmt.Sprintf("execution timed out after %s", timeout)
	case runner.StatusSignalled:
		execRes.ErrorKind = models.ErrorKindRuntimeError
		execRes.ErrorMessage = res.Error
		execRes.ExitStatus = intPtr(-res.ExitStatus)
	default:
		execRes.ErrorKind = models.ErrorKindRuntimeError
		execRes.ErrorMessage = res.Error
		execRes.ExitStatus = intPtr(res.ExitStatus)
	}
	return execRes
}

func intPtr(v int) *int {
	return &v
}
