package procsup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpawnAndWaitSuccess(t *testing.T) {
	proc, err := Spawn(SpawnOptions{Argv: []string{"true"}, Stdio: StdioDiscard})
	require.NoError(t, err)
	code, err := proc.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

func TestSpawnAndWaitNonZeroExit(t *testing.T) {
	proc, err := Spawn(SpawnOptions{Argv: []string{"false"}, Stdio: StdioDiscard})
	require.NoError(t, err)
	code, err := proc.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, code)
}

func TestSpawnCapturesLines(t *testing.T) {
	proc, err := Spawn(SpawnOptions{
		Argv:  []string{"printf", "one\ntwo\nthree\n"},
		Stdio: StdioCaptureLines,
	})
	require.NoError(t, err)

	var lines []string
	for line := range proc.Lines {
		lines = append(lines, line)
	}
	_, err = proc.Wait()
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", "three"}, lines)
}

func TestPublishAndClearUIPid(t *testing.T) {
	PublishUIPid(4242)
	require.Equal(t, int64(4242), globalRegistry.uiPid.Load())
	ClearUIPid()
	require.Equal(t, int64(0), globalRegistry.uiPid.Load())
}

func TestStopCoreTerminatesChild(t *testing.T) {
	proc, err := Spawn(SpawnOptions{Argv: []string{"sleep", "5"}, Stdio: StdioDiscard})
	require.NoError(t, err)
	require.NoError(t, StopCore(proc, false))
}
