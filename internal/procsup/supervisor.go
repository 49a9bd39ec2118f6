// Package procsup implements the Process Supervisor (§4.4, component
// C4): spawning and waiting on language tracers, the core backend and the
// UI, signal propagation, and guaranteed cleanup on SIGINT/SIGTERM.
// Grounded on petar-djukic-mage-claude-orchestrator/pkg/orchestrator/commands.go
// (explicit-argv exec.Command wrappers, cmd.Dir, inherited stdio) and
// kubernetes-dns/cmd/kube-dns/app/server.go's setupSignalHandlers
// (signal.Notify into a channel, a background reacting goroutine).
package procsup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"

	"github.com/sourcegraph/conc"
)

// Stdio selects how a child's standard streams are wired (§4.4).
type Stdio int

const (
	// StdioInherit connects the child directly to the parent's stdio.
	StdioInherit Stdio = iota
	// StdioCaptureLines exposes the child's stdout as a line channel.
	StdioCaptureLines
	// StdioDiscard sends the child's output to the null device.
	StdioDiscard
)

// SpawnOptions describes a child process launch (§4.4 "Spawn child
// processes with: explicit argv, working directory, inherited or composed
// environment, and stdio policy").
type SpawnOptions struct {
	Argv  []string
	Dir   string
	Env   []string // nil => inherit os.Environ(); otherwise used verbatim
	Stdio Stdio
}

// Process wraps a running child and, when spawned with StdioCaptureLines,
// exposes its stdout as a channel of lines.
type Process struct {
	cmd   *exec.Cmd
	Lines <-chan string
}

// Spawn starts a child process per opts. The returned Process's Pid() is
// valid for the Catalog's register_record_trace_id ordering anchor (§4.4 "a spawn returning a PID is the ordering anchor").
func Spawn(opts SpawnOptions) (*Process, error) {
	if len(opts.Argv) == 0 {
		return nil, fmt.Errorf("spawn: empty argv")
	}

	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	cmd.Dir = opts.Dir
	if opts.Env != nil {
		cmd.Env = opts.Env
	}

	var lines chan string
	switch opts.Stdio {
	case StdioInherit:
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Stdin = os.Stdin
	case StdioDiscard:
		cmd.Stdout = nil
		cmd.Stderr = nil
	case StdioCaptureLines:
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("spawn %s: stdout pipe: %w", opts.Argv[0], err)
		}
		cmd.Stderr = os.Stderr
		lines = make(chan string, 64)
		pumpLines(stdout, lines)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", opts.Argv[0], err)
	}

	return &Process{cmd: cmd, Lines: lines}, nil
}

// pumpLines reads r line-by-line into ch in a panic-safe goroutine, closing
// ch when r is exhausted, so a malformed child's stdout never crashes the
// supervising process.
func pumpLines(r io.Reader, ch chan<- string) {
	var wg conc.WaitGroup
	wg.Go(func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
	})
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the child exits and returns its exit code (§4.4
// "Wait synchronously for exit"). A non-nil err other than ExitError
// indicates the process could not be waited on at all.
func (p *Process) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("wait: %w", err)
}

// Signal sends sig to the child process.
func (p *Process) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

// Kill sends SIGKILL to the child process.
func (p *Process) Kill() error {
	return p.cmd.Process.Kill()
}

// registry holds the global mutable PID state the signal handler needs,
// re-architected per §9 as a lock-free atomic slot owned by the
// Process Supervisor rather than bare package-level `var electronPid int`.
type registry struct {
	uiPid   atomic.Int64
	coreGID atomic.Int64
}

var globalRegistry registry

// PublishUIPid records the currently running UI child's pid so the signal
// handler can SIGKILL it (§3 invariant 6, §4.4, §5 "Signal handlers
// observe a happens-before edge with the most recently assigned
// electronPid/rrPid globals: the orchestrator must publish these before any
// await on the child").
func PublishUIPid(pid int) {
	globalRegistry.uiPid.Store(int64(pid))
}

// ClearUIPid removes the published UI pid once the UI child has exited.
func ClearUIPid() {
	globalRegistry.uiPid.Store(0)
}

// PublishCoreProcessGroup records the core backend's pid in the process
// registry. StopCore signals the Process it is given and does not read
// this value.
func PublishCoreProcessGroup(pid int) {
	globalRegistry.coreGID.Store(int64(pid))
}

// StopCore stops the core process: if recordCore is false, SIGTERM and
// wait; if true, SIGINT so the backend can flush, then wait. The signal is
// sent to the core process itself only; its process group and any children
// it started are not signalled.
func StopCore(p *Process, recordCore bool) error {
	if p == nil {
		return nil
	}
	sig := syscall.SIGTERM
	if recordCore {
		sig = syscall.SIGINT
	}
	if err := p.Signal(sig); err != nil {
		return fmt.Errorf("stop core: signal: %w", err)
	}
	if _, err := p.Wait(); err != nil {
		return fmt.Errorf("stop core: wait: %w", err)
	}
	return nil
}
