// Package ui renders change reports for the filesentry CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Reporter prints one line per settled change. Output is styled when the
// destination is a terminal and plain when piped.
type Reporter struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	color  bool
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		out:    out,
		styles: DefaultStyles(),
		color:  isTerminal(out),
	}
}

// Change reports a settled change of path observed at the given time.
func (r *Reporter) Change(path string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stamp := at.Format("15:04:05")
	if r.color {
		fmt.Fprintf(r.out, "%s %s %s\n",
			r.styles.Dim.Render(stamp),
			r.styles.Changed.Render("changed"),
			r.styles.Path.Render(path),
		)
		return
	}
	fmt.Fprintf(r.out, "%s changed %s\n", stamp, path)
}

// Watching reports that a file is now being watched.
func (r *Reporter) Watching(path, strategy string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.color {
		fmt.Fprintf(r.out, "%s %s (%s)\n",
			r.styles.Label.Render("watching"),
			r.styles.Path.Render(path),
			strategy,
		)
		return
	}
	fmt.Fprintf(r.out, "watching %s (%s)\n", path, strategy)
}

// isTerminal reports whether out is an interactive terminal.
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
