// Package display provides user-facing terminal messages that are not log lines.
//
// # Warning Messages
//
// Display warnings with optional components:
//
//	warning := display.Warning{
//	    Title:      "Previous dump found inside the scanned tree",
//	    Message:    "Its content will be included in the new dump",
//	    Files:      []string{"./project_files_dump.txt"},
//	    Suggestion: "Delete it first",
//	}
//	warning.Display(os.Stderr)
//
// Output is wrapped in yellow ANSI codes only when the writer is a terminal and
// NO_COLOR is unset; String renders the plain text.
package display
