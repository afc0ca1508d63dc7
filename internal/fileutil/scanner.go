package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileFunc is called for every non-directory entry the walk reaches.
// path is the directory being visited joined with the entry name, uncleaned.
type FileFunc func(path string, entry fs.DirEntry) error

// DirErrorFunc is called when a directory below the root cannot be listed.
// The directory is skipped and the walk continues.
type DirErrorFunc func(dir string, err error)

// WalkOptions configures Walk
type WalkOptions struct {
	// OnDirError receives listing failures for directories below the root (optional)
	OnDirError DirErrorFunc
	// ExcludeDirs is a list of directory names that are never descended (optional)
	ExcludeDirs []string
}

// Walk visits the tree rooted at root top-down. Within a directory, files are
// visited first in lexical order of their names, followed by each subdirectory
// in lexical order. Symlinks to directories are reported as neither files nor
// walked. Named pipes, sockets and devices are never reported.
//
// Only a failure to access the root itself is returned as an error. Errors
// returned by fn abort the walk and are returned unchanged.
func Walk(root string, fn FileFunc, opts WalkOptions) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to list directory %s: %w", root, err)
	}

	excludeMap := make(map[string]bool)
	for _, dir := range opts.ExcludeDirs {
		excludeMap[dir] = true
	}

	w := &walker{fn: fn, onDirError: opts.OnDirError, exclude: excludeMap}
	return w.visit(root, entries)
}

type walker struct {
	fn         FileFunc
	onDirError DirErrorFunc
	exclude    map[string]bool
}

func (w *walker) visit(dir string, entries []fs.DirEntry) error {
	var subdirs []string

	for _, entry := range entries {
		path := JoinPath(dir, entry.Name())

		kind := classify(path, entry)
		switch kind {
		case kindDir:
			if !w.exclude[entry.Name()] {
				subdirs = append(subdirs, path)
			}
			continue
		case kindLinkedDir, kindIrregular:
			continue
		}

		if err := w.fn(path, entry); err != nil {
			return err
		}
	}

	for _, sub := range subdirs {
		children, err := os.ReadDir(sub)
		if err != nil {
			if w.onDirError != nil {
				w.onDirError(sub, err)
			}
			continue
		}
		if err := w.visit(sub, children); err != nil {
			return err
		}
	}

	return nil
}

type entryKind int

const (
	kindFile entryKind = iota
	kindDir
	kindLinkedDir
	kindIrregular
)

// classify resolves symlinks one level so that links to files are treated as
// files and dangling links still reach the caller (their read fails later).
func classify(path string, entry fs.DirEntry) entryKind {
	mode := entry.Type()
	if mode&fs.ModeSymlink != 0 {
		target, err := os.Stat(path)
		if err != nil {
			return kindFile
		}
		if target.IsDir() {
			return kindLinkedDir
		}
		mode = target.Mode().Type()
	}

	switch {
	case mode.IsDir():
		return kindDir
	case mode&(fs.ModeNamedPipe|fs.ModeSocket|fs.ModeDevice|fs.ModeCharDevice|fs.ModeIrregular) != 0:
		return kindIrregular
	default:
		return kindFile
	}
}

// JoinPath joins dir and name with the OS separator without cleaning the
// result, so a walk rooted at "." yields paths such as "./sub/file.txt".
func JoinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	if strings.HasSuffix(dir, string(filepath.Separator)) || strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}

// SplitExt returns the extension of a file name: the suffix starting at the
// last dot, including the dot. Leading dots never start an extension, so
// ".bashrc" and "..txt" have none, while "a.tar.gz" has ".gz" and "a." has ".".
func SplitExt(name string) string {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return ""
	}
	if strings.TrimLeft(name[:dot], ".") == "" {
		return ""
	}
	return name[dot:]
}

// MatchOptions configures a Matcher
type MatchOptions struct {
	// Extensions to include (e.g., ".md", "yaml"). A file's extension is
	// lower-cased before lookup, so only lower-case entries can match.
	Extensions []string
	// Names are file names to include regardless of extension, matched
	// against the lower-cased file name
	Names []string
}

// Matcher decides whether a file name belongs to the allow-set
type Matcher struct {
	extensions map[string]bool
	names      map[string]bool
}

// NewMatcher builds a Matcher. Entries are kept as written.
func NewMatcher(opts MatchOptions) *Matcher {
	m := &Matcher{
		extensions: make(map[string]bool, len(opts.Extensions)),
		names:      make(map[string]bool, len(opts.Names)),
	}

	for _, ext := range opts.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		// Ensure extensions start with a dot
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.extensions[ext] = true
	}

	for _, name := range opts.Names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		m.names[name] = true
	}

	return m
}

// Match reports whether a base file name is included by extension or by name
func (m *Matcher) Match(name string) bool {
	if m.names[strings.ToLower(name)] {
		return true
	}
	ext := SplitExt(name)
	if ext == "" {
		return false
	}
	return m.extensions[strings.ToLower(ext)]
}
