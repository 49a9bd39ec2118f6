// Package shellreport implements the optional shell-integration reporting
// channel (§4.5 "Shell integration (optional): if CODETRACER_SESSION_ID
// is set, emit a WorkingStatus record to the shell report socket before
// invoking the tracer and OkStatus/ErrorStatus after"). Failures here are
// always non-fatal (§7), reported through internal/warn rather than
// returned.
package shellreport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/metacraft-labs/codetracer-core/internal/paths"
	"github.com/metacraft-labs/codetracer-core/internal/warn"
)

// status is the wire record sent to the shell's report socket.
type status struct {
	Kind      string `json:"kind"`
	FirstLine string `json:"firstLine,omitempty"`
	LastLine  string `json:"lastLine,omitempty"`
}

// SocketPath returns the Unix socket path the shell wrapper listens on for
// session sessionID.
func SocketPath(sessionID string) string {
	return fmt.Sprintf("%s/ct_session_%s.sock", paths.TmpDir(), sessionID)
}

// Enabled reports whether CODETRACER_SESSION_ID is set, gating the optional
// shell-integration reporting path.
func Enabled() bool {
	return os.Getenv(paths.EnvSessionID) != ""
}

// ReportWorking sends a WorkingStatus record before a tracer is invoked.
// Failure is logged and never propagated (§4.5 "optional").
func ReportWorking() {
	send(status{Kind: "WorkingStatus"})
}

// ReportOk sends an OkStatus record with the first/last line of the
// session log after a successful recording.
func ReportOk(sessionLogPath string) {
	first, last := readFirstLastLine(sessionLogPath)
	send(status{Kind: "OkStatus", FirstLine: first, LastLine: last})
}

// ReportError sends an ErrorStatus record with the first/last line of the
// session log after a failed recording.
func ReportError(sessionLogPath string) {
	first, last := readFirstLastLine(sessionLogPath)
	send(status{Kind: "ErrorStatus", FirstLine: first, LastLine: last})
}

func send(s status) {
	sessionID := os.Getenv(paths.EnvSessionID)
	if sessionID == "" {
		return
	}
	conn, err := net.Dial("unix", SocketPath(sessionID))
	if err != nil {
		warn.Printf("shell report socket unavailable: %v", err)
		return
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(s); err != nil {
		warn.Printf("shell report encode failed: %v", err)
	}
}

func readFirstLastLine(path string) (string, string) {
	if path == "" {
		return "", ""
	}
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()

	var first, last string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if first == "" {
			first = line
		}
		last = line
	}
	return first, last
}
