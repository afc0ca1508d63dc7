// Package collector implements the single dump pass: walk the tree, keep the
// files in the allow-set, read them as UTF-8 text and write every block to one
// output file.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/harrison/textdump/internal/config"
	"github.com/harrison/textdump/internal/display"
	"github.com/harrison/textdump/internal/filelock"
	"github.com/harrison/textdump/internal/fileutil"
	"github.com/harrison/textdump/internal/history"
	"github.com/harrison/textdump/internal/logger"
	"github.com/harrison/textdump/internal/models"
)

// RunRecorder persists finished runs. *history.Store satisfies it.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *history.Run) error
}

// Collector turns a directory tree into a single text dump.
type Collector struct {
	cfg      *config.Config
	matcher  *fileutil.Matcher
	logger   logger.Logger
	warnOut  io.Writer
	recorder RunRecorder
}

// Option configures optional Collector dependencies
type Option func(*Collector)

// WithWarningOutput sets where user-facing warnings are displayed (default os.Stderr)
func WithWarningOutput(w io.Writer) Option {
	return func(c *Collector) { c.warnOut = w }
}

// WithRecorder records every written dump in a run history
func WithRecorder(r RunRecorder) Option {
	return func(c *Collector) { c.recorder = r }
}

// New creates a Collector for cfg. A nil logger discards all messages.
func New(cfg *config.Config, log logger.Logger, opts ...Option) *Collector {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	c := &Collector{
		cfg: cfg,
		matcher: fileutil.NewMatcher(fileutil.MatchOptions{
			Extensions: cfg.Extensions,
			Names:      cfg.Names,
		}),
		logger:  log,
		warnOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect walks the tree and returns the blocks of every readable candidate in
// visitation order. Nothing is written. Per-file read failures are logged and
// recorded in the result; only a failure to walk the root is returned.
func (c *Collector) Collect(ctx context.Context) ([]models.Block, *models.DumpResult, error) {
	result := &models.DumpResult{
		Root:      c.cfg.Root,
		StartedAt: time.Now(),
	}

	outputAbs, err := filepath.Abs(c.cfg.OutputPath())
	if err != nil {
		return nil, result, fmt.Errorf("failed to resolve output path: %w", err)
	}
	outputBase := filepath.Base(outputAbs)

	var blocks []models.Block

	visit := func(path string, entry fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Visited++

		name := entry.Name()
		if !c.matcher.Match(name) {
			result.Skipped++
			c.logger.LogTrace(fmt.Sprintf("skip %s", path))
			return nil
		}

		if name == outputBase {
			if abs, err := filepath.Abs(path); err == nil && abs == outputAbs {
				if logger.LevelEnabled(c.cfg.LogLevel, "warn") {
					display.WarnPreviousDump(path).Display(c.warnOut)
				}
			}
		}

		content, err := readText(path)
		if err != nil {
			failure := models.FileFailure{Path: path, Err: err}
			result.Failures = append(result.Failures, failure)
			c.logger.LogWarn(failure.Error())
			return nil
		}

		blocks = append(blocks, models.Block{Path: path, Content: content})
		result.Included++
		c.logger.LogDebug(fmt.Sprintf("include %s (%d bytes)", path, len(content)))
		return nil
	}

	err = fileutil.Walk(c.cfg.Root, visit, fileutil.WalkOptions{
		ExcludeDirs: c.cfg.ExcludeDirs,
		OnDirError: func(dir string, err error) {
			c.logger.LogDebug(fmt.Sprintf("skipping directory %s: %v", dir, err))
		},
	})
	result.Duration = time.Since(result.StartedAt)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			return nil, result, fmt.Errorf("collection interrupted: %w", err)
		}
		return nil, result, err
	}

	return blocks, result, nil
}

// Run collects the tree and writes the dump. SIGINT or SIGTERM stop the walk
// before anything is written.
func (c *Collector) Run(ctx context.Context) (*models.DumpResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			c.logger.LogWarn("Received interrupt signal, stopping before the dump is written")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c.logger.LogInfo(fmt.Sprintf("Collecting text files under %s", c.cfg.Root))

	blocks, result, err := c.Collect(ctx)
	if err != nil {
		return result, err
	}
	result.RunID = history.NewRunID()

	data := Render(blocks)
	result.Bytes = len(data)

	encoded, err := filelock.Compress(data, c.cfg.Compress)
	if err != nil {
		return result, err
	}

	outputPath := c.cfg.OutputPath()
	if err := filelock.LockAndWrite(outputPath, encoded); err != nil {
		return result, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	result.OutputPath = outputPath
	result.Digest = history.Digest(encoded)
	result.Duration = time.Since(result.StartedAt)

	c.logger.LogSummary(*result)

	if c.recorder != nil {
		run := history.RunFromResult(*result)
		if err := c.recorder.RecordRun(ctx, &run); err != nil {
			// The dump is already on disk; a history failure does not fail the run
			c.logger.LogWarn(fmt.Sprintf("failed to record run history: %v", err))
		}
	}

	return result, nil
}

// Render concatenates blocks in order into the dump file content
func Render(blocks []models.Block) []byte {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.String())
	}
	return []byte(sb.String())
}

// readText reads a whole file and requires it to be valid UTF-8.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if offset := invalidUTF8Offset(data); offset >= 0 {
		return "", &DecodeError{Offset: offset, Byte: data[offset]}
	}
	return string(data), nil
}

// DecodeError reports content that is not valid UTF-8
type DecodeError struct {
	Offset int
	Byte   byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid UTF-8: byte 0x%02x at offset %d", e.Byte, e.Offset)
}

// invalidUTF8Offset returns the offset of the first invalid byte, or -1
func invalidUTF8Offset(data []byte) int {
	if utf8.Valid(data) {
		return -1
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
