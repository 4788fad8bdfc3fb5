package shell

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

type Options struct {
	Dir string
	// Appended to the parent environment
	Env []string
	// Written to stdin, which is closed afterwards
	Stdin string
	// Bytes kept per output stream, 0 for unlimited
	MaxOutputSize int64
	// How long Wait keeps draining pipes after the process group is killed
	KillDelay time.Duration
}

type Command struct {
	Cmd    *exec.Cmd
	StdOut *LimitedBuffer
	StdErr *LimitedBuffer

	ctx      context.Context
	timedOut bool
}

// NewCommand prepares a command that runs in its own process group. The group
// is killed when ctx is done, even if the command itself already exited and
// only something it spawned is left, and again once Run returns.
func NewCommand(ctx context.Context, opts Options, command string, args ...string) *Command {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opts.Env...)
	}
	cmd.Stdin = strings.NewReader(opts.Stdin)

	stdout := NewLimitedBuffer(opts.MaxOutputSize)
	stderr := NewLimitedBuffer(opts.MaxOutputSize)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	setProcessGroup(cmd)
	cmd.WaitDelay = opts.KillDelay

	return &Command{
		Cmd:    cmd,
		StdOut: stdout,
		StdErr: stderr,
		ctx:    ctx,
	}
}

func (c *Command) Run() error {
	if err := c.Cmd.Start(); err != nil {
		return err
	}
	// exec only cancels while the direct child runs, a background child
	// holding the pipes would outlive the deadline
	stop := context.AfterFunc(c.ctx, func() {
		killGroup(c.Cmd)
	})
	err := c.Cmd.Wait()
	c.timedOut = !stop()
	killGroup(c.Cmd)
	return err
}

// TimedOut reports whether ctx ended before Run was done with the process.
func (c *Command) TimedOut() bool {
	return c.timedOut
}

// Started reports whether the process was actually spawned.
func (c *Command) Started() bool {
	return c.Cmd.Process != nil
}

func (c *Command) RunAndCollectStdout() (string, error) {
	err := c.Run()
	return strings.TrimSpace(c.StdOut.String()), err
}
