// Package warn prints non-fatal diagnostics to stderr. Several operations
// (Noir ctags pre-extraction, source embedding during import) are allowed
// to fail without aborting the surrounding operation (§7 "Non-fatal"
// taxonomy); this package is the single place that formats those messages.
package warn

import (
	"fmt"
	"os"
)

// Printf writes a "warning: "-prefixed message to stderr. It never returns
// an error and never exits the process.
func Printf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
