package models

import (
	"fmt"
	"time"
)

// BlockHeaderPrefix starts the header line of every block in a dump
const BlockHeaderPrefix = "# path: "

// Block is one formatted unit of a dump: a path header followed by a file's content
type Block struct {
	Path    string // Path as visited, e.g. "./subdir/file.txt"
	Content string // Verbatim file content
}

// String renders the block exactly as it appears in the output file
func (b Block) String() string {
	return fmt.Sprintf("%s%s\n%s\n", BlockHeaderPrefix, b.Path, b.Content)
}

// FileFailure records a candidate file that could not be read
type FileFailure struct {
	Path string
	Err  error
}

// Error formats the failure as the diagnostic line shown to the user
func (f FileFailure) Error() string {
	return fmt.Sprintf("could not read %s: %v", f.Path, f.Err)
}

// Unwrap exposes the underlying read error
func (f FileFailure) Unwrap() error {
	return f.Err
}

// DumpResult summarizes a single collector run
type DumpResult struct {
	RunID      string        // Unique run identifier
	Root       string        // Directory the walk started from
	OutputPath string        // Path the dump was written to (empty for dry runs)
	Visited    int           // Files seen by the walk
	Included   int           // Files whose block made it into the dump
	Skipped    int           // Files rejected by the allow-set
	Failures   []FileFailure // Candidate files that could not be read
	Bytes      int           // Size of the dump before compression
	Digest     string        // BLAKE2b-256 of the written bytes
	StartedAt  time.Time
	Duration   time.Duration
}

// Failed returns the number of candidate files that could not be read
func (r DumpResult) Failed() int {
	return len(r.Failures)
}
