//go:build unix

package shell

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not installed")
	}
}

func TestCommand_StdinAndEnv(t *testing.T) {
	requireSh(t)
	cmd := NewCommand(context.Background(), Options{
		Env:   []string{"GREETING=hello"},
		Stdin: "world\n",
	}, "sh", "-c", `read name; echo "$GREETING $name"; read rest || echo eof; echo oops >&2`)

	require.NoError(t, cmd.Run())
	assert.True(t, cmd.Started())
	assert.Equal(t, "hello world\neof\n", cmd.StdOut.String())
	assert.Equal(t, "oops\n", cmd.StdErr.String())
}

func TestCommand_KillsProcessGroup(t *testing.T) {
	requireSh(t)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	// the background sleep inherits stdout, only a group kill releases Wait
	cmd := NewCommand(ctx, Options{KillDelay: time.Second}, "sh", "-c", "echo started; sleep 30 & sleep 30")

	start := time.Now()
	err := cmd.Run()

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, "started\n", cmd.StdOut.String())
	sig, ok := Signal(cmd.Cmd.ProcessState)
	assert.True(t, ok)
	assert.Equal(t, syscall.SIGKILL, sig)
	assert.True(t, cmd.TimedOut())
}

// processGone treats a zombie as gone, nobody may be around to reap it.
func processGone(pid int) bool {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return true
	}
	stat := string(data)
	fields := strings.Fields(stat[strings.LastIndexByte(stat, ')')+1:])
	return len(fields) > 0 && fields[0] == "Z"
}

func requireProc(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("/proc is not available")
	}
}

func TestCommand_DeadlineAfterCommandExits(t *testing.T) {
	requireSh(t)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	// sh exits at once, the sleep keeps stdout open and there is no WaitDelay
	cmd := NewCommand(ctx, Options{}, "sh", "-c", "echo started; sleep 30 &")

	start := time.Now()
	err := cmd.Run()

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, cmd.TimedOut())
	assert.Equal(t, "started\n", cmd.StdOut.String())
}

func TestCommand_KillsLeftoverChildren(t *testing.T) {
	requireSh(t)
	requireProc(t)
	cmd := NewCommand(context.Background(), Options{KillDelay: 200 * time.Millisecond}, "sh", "-c", "sleep 30 & echo $!")

	start := time.Now()
	err := cmd.Run()

	assert.ErrorIs(t, err, exec.ErrWaitDelay)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, cmd.TimedOut())
	pid, convErr := strconv.Atoi(strings.TrimSpace(cmd.StdOut.String()))
	require.NoError(t, convErr)
	assert.Eventually(t, func() bool { return processGone(pid) }, 2*time.Second, 20*time.Millisecond)
}

func TestCommand_NotStarted(t *testing.T) {
	cmd := NewCommand(context.Background(), Options{}, "no-such-binary-for-tests")

	require.Error(t, cmd.Run())
	assert.False(t, cmd.Started())
}

func TestRunAndCollectStdout(t *testing.T) {
	requireSh(t)
	out, err := NewCommand(context.Background(), Options{}, "sh", "-c", "echo '  3.12.1  '").RunAndCollectStdout()

	require.NoError(t, err)
	assert.Equal(t, "3.12.1", out)
}
