package models

import (
	"errors"
	"io/fs"
	"testing"
	"time"
)

func TestBlockString(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{"simple", Block{Path: "./a.txt", Content: "hello"}, "# path: ./a.txt\nhello\n"},
		{"trailing newline kept", Block{Path: "./b.md", Content: "x\n"}, "# path: ./b.md\nx\n\n"},
		{"empty content", Block{Path: "./e.txt"}, "# path: ./e.txt\n\n"},
		{"crlf verbatim", Block{Path: "./w.ini", Content: "a=1\r\n"}, "# path: ./w.ini\na=1\r\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileFailure(t *testing.T) {
	f := FileFailure{Path: "./x.txt", Err: fs.ErrPermission}

	if got, want := f.Error(), "could not read ./x.txt: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(f, fs.ErrPermission) {
		t.Error("FileFailure should unwrap to its read error")
	}
}

func TestDumpResultFailed(t *testing.T) {
	r := DumpResult{Duration: time.Second}
	if r.Failed() != 0 {
		t.Errorf("Failed() = %d, want 0", r.Failed())
	}

	r.Failures = append(r.Failures, FileFailure{Path: "a"}, FileFailure{Path: "b"})
	if r.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", r.Failed())
	}
}
