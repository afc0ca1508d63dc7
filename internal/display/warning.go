package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning, in yellow when out is a terminal
func (w Warning) Display(out io.Writer) {
	fmt.Fprint(out, w.render(supportsColor(out)))
}

// String renders the warning without ANSI codes
func (w Warning) String() string {
	return w.render(false)
}

func (w Warning) render(colored bool) string {
	var b strings.Builder

	if colored {
		b.WriteString("\x1b[33m")
	}
	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected file:\n")
		} else {
			b.WriteString("Affected files:\n")
		}

		for i, file := range w.Files {
			b.WriteString("      ")
			b.WriteString(fmt.Sprintf("%d. %s", i+1, file))
			b.WriteString("\n")
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	if colored {
		b.WriteString("\x1b[0m")
	}

	return b.String()
}

func supportsColor(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok || f == nil {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// WarnPreviousDump creates the warning shown when a dump from an earlier run
// sits inside the tree and is about to be collected again
func WarnPreviousDump(path string) Warning {
	return Warning{
		Title:      "Previous dump found inside the scanned tree",
		Message:    "Its content will be included in the new dump",
		Files:      []string{path},
		Suggestion: "Delete it first or write the dump outside the tree with --output",
	}
}
