// Package lang implements the Language Detector (§4.3, component C3):
// a pure function mapping a program path to a Lang tag.
package lang

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/metacraft-labs/codetracer-core/pkg/trace"
)

// Detect maps program to a Lang tag (§4.3 detect_lang):
//  1. If override is not Unknown, return it.
//  2. If program is a directory containing Nargo.toml, return Noir.
//  3. By file suffix: .rb -> RubyDb, .nr -> Noir, .small -> Small.
//  4. Otherwise Unknown.
func Detect(program string, override trace.Lang) trace.Lang {
	if override != trace.LangUnknown {
		return override
	}

	if info, err := os.Stat(program); err == nil && info.IsDir() {
		if _, err := os.Stat(filepath.Join(program, "Nargo.toml")); err == nil {
			return trace.LangNoir
		}
	}

	switch strings.ToLower(filepath.Ext(program)) {
	case ".rb":
		return trace.LangRubyDb
	case ".nr":
		return trace.LangNoir
	case ".small":
		return trace.LangSmall
	default:
		return trace.LangUnknown
	}
}
