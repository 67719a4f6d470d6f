// Package buildinfo reports how the running binary was built, so that an
// exported matrix can be traced back to the code that produced it.
package buildinfo

import (
	"fmt"
	"io"
	"runtime/debug"
)

// Print writes a one-line description of the binary's build provenance.
func Print(w io.Writer) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	var commit, commitTime string
	modified := ""
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
		case "vcs.time":
			commitTime = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				modified = " (modified)"
			}
		}
	}

	fmt.Fprintf(w, "%s built with %s at commit %s%s at %s\n", bi.Path, bi.GoVersion, commit, modified, commitTime)
}
