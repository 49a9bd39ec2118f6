// Package trace defines the Trace entity and its supporting value types.
// Implements: §3 DATA MODEL (Trace, TraceValues, RecordPidMap, invariants).
package trace

import "errors"

// Lang tags the recording's source language (§3, §4.3).
type Lang string

const (
	LangC       Lang = "C"
	LangCpp     Lang = "Cpp"
	LangRust    Lang = "Rust"
	LangNim     Lang = "Nim"
	LangGo      Lang = "Go"
	LangRubyDb  Lang = "RubyDb"
	LangNoir    Lang = "Noir"
	LangSmall   Lang = "Small"
	LangPython  Lang = "Python"
	LangAsm     Lang = "Asm"
	LangUnknown Lang = "Unknown"
)

// IsDbBased reports whether tracers for this language emit trace.json +
// trace_metadata.json under an output folder (§4.3, GLOSSARY).
func (l Lang) IsDbBased() bool {
	switch l {
	case LangRubyDb, LangNoir, LangSmall, LangPython:
		return true
	default:
		return false
	}
}

// CalltraceMode tags the instrumentation level used while recording (§3).
type CalltraceMode string

const (
	NoInstrumentation  CalltraceMode = "NoInstrumentation"
	RawRecordNoValues  CalltraceMode = "RawRecordNoValues"
	FullRecord         CalltraceMode = "FullRecord"
)

// Trace is the entity persisted by the Trace Catalog (§3).
type Trace struct {
	ID             int64         `json:"id"`
	Program        string        `json:"program"`
	Args           []string      `json:"args"`
	CompileCommand string        `json:"compileCommand"`
	Env            string        `json:"env"`
	Workdir        string        `json:"workdir"`
	Lang           Lang          `json:"lang"`
	OutputFolder   string        `json:"outputFolder"`
	SourceFolders  string        `json:"sourceFolders"`
	LowLevelFolder string        `json:"lowLevelFolder,omitempty"`
	Imported       bool          `json:"imported"`
	ShellID        int64         `json:"shellID"`
	RRPid          int64         `json:"rrPid"`
	ExitCode       int           `json:"exitCode"`
	Calltrace      bool          `json:"calltrace"`
	CalltraceMode  CalltraceMode `json:"calltraceMode"`
	Date           string        `json:"date"`
	DownloadID     string        `json:"downloadId,omitempty"`
	ControlID      string        `json:"controlId,omitempty"`
	Key            string        `json:"key,omitempty"`
	RemoteShareExpireTime string `json:"remoteShareExpireTime,omitempty"`
}

// Partition selects one of the Catalog's two independent ID/storage spaces (§3
// invariant 2, GLOSSARY "Partition"). It is passed alongside a Trace to every
// Catalog operation rather than stored on the struct itself, since it selects
// *which* database a Trace lives in, not a field of the Trace.
type Partition bool

const (
	Production Partition = false
	TestData   Partition = true
)

// Errors returned by catalog, recorder, importer/exporter and replay
// components operating on Trace values. Declared here so every package that
// needs to recognize "not found" / "unsupported language" style conditions
// can do so with errors.Is against a single shared sentinel set.
var (
	ErrNotFound            = errors.New("trace not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrProgramNotFound     = errors.New("program not found")
)
