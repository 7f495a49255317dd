package diag

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	codeStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	categoryStyle = lipgloss.NewStyle().Bold(true)
	positionStyle = lipgloss.NewStyle().Faint(true)
	bulletStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

var printMu sync.Mutex

// Render produces the user-visible multi-line diagnostic block: code and
// category, cause, position, and the suggested solutions.
func (e *Error) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s\n",
		codeStyle.Render(fmt.Sprintf("[%d]", e.Code)),
		categoryStyle.Render(e.Category),
		e.Cause)
	if e.Position != "" {
		fmt.Fprintf(&b, "%s\n", positionStyle.Render("at "+e.Position))
	}
	if len(e.Solutions) > 0 {
		b.WriteString("Try the following:\n")
		for _, s := range e.Solutions {
			fmt.Fprintf(&b, "%s %s\n", bulletStyle.Render(">"), s)
		}
	}
	return b.String()
}

// Fprint writes the rendered block to w. The write is serialized so that
// diagnostics emitted from worker goroutines are never interleaved inside a
// single block.
func Fprint(w io.Writer, err error) {
	printMu.Lock()
	defer printMu.Unlock()
	if e, ok := err.(*Error); ok {
		fmt.Fprint(w, e.Render())
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
