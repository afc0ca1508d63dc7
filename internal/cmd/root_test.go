package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/textdump/internal/config"
	"github.com/harrison/textdump/internal/filelock"
	"github.com/harrison/textdump/internal/history"
)

// execute runs the root command with args and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// inTempTree switches into a fresh directory holding files
func inTempTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	t.Chdir(dir)
	return dir
}

func TestRootCommandHelp(t *testing.T) {
	stdout, _, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "textdump")
	assert.Contains(t, stdout, "project_files_dump.txt")
	for _, flag := range []string{"--root", "--output", "--config", "--log-level", "--log-dir", "--compress", "--dry-run", "--history"} {
		assert.Contains(t, stdout, flag)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "textdump", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "extensions")
	assert.Contains(t, names, "history")
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "version")
}

func TestRootRejectsArguments(t *testing.T) {
	inTempTree(t, nil)
	_, _, err := execute(t, "somewhere")
	require.Error(t, err)

	_, statErr := os.Stat(config.DefaultOutput)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDumpDefaults(t *testing.T) {
	inTempTree(t, map[string]string{
		"a.txt": "hello",
		"b.bin": "\x00\x01",
	})

	_, stderr, err := execute(t)
	require.NoError(t, err)

	data, err := os.ReadFile(config.DefaultOutput)
	require.NoError(t, err)
	assert.Equal(t, "# path: ./a.txt\nhello\n", string(data))
	assert.NotContains(t, stderr, "could not read")
	assert.Contains(t, stderr, "Dump Summary")
}

func TestDumpUnreadableFileStillSucceeds(t *testing.T) {
	inTempTree(t, map[string]string{
		"bad.md":  "\xc3\x28",
		"good.md": "ok",
	})

	_, stderr, err := execute(t)
	require.NoError(t, err)

	data, err := os.ReadFile(config.DefaultOutput)
	require.NoError(t, err)
	assert.Equal(t, "# path: ./good.md\nok\n", string(data))
	assert.Contains(t, stderr, "could not read ./bad.md:")
}

func TestDumpFlags(t *testing.T) {
	dir := inTempTree(t, map[string]string{
		"src/main.go":  "package main",
		"docs/read.md": "docs",
	})

	_, _, err := execute(t, "--root", "src", "--output", "all.txt", "--log-level", "error")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "src", "all.txt"))
	require.NoError(t, err)
	assert.Equal(t, "# path: src/main.go\npackage main\n", string(data))
}

func TestDumpLogLevelErrorIsQuiet(t *testing.T) {
	inTempTree(t, map[string]string{
		"a.txt":                  "x",
		"project_files_dump.txt": "from an earlier run",
	})

	_, stderr, err := execute(t, "--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	data, err := os.ReadFile(config.DefaultOutput)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# path: ./project_files_dump.txt\nfrom an earlier run\n")
}

func TestDumpCompressZstd(t *testing.T) {
	inTempTree(t, map[string]string{"a.txt": "hello"})

	_, _, err := execute(t, "--compress", "zstd")
	require.NoError(t, err)

	raw, err := os.ReadFile(config.DefaultOutput + ".zst")
	require.NoError(t, err)
	plain, err := filelock.Decompress(raw, "zstd")
	require.NoError(t, err)
	assert.Equal(t, "# path: ./a.txt\nhello\n", string(plain))
}

func TestDumpDryRun(t *testing.T) {
	inTempTree(t, map[string]string{
		"a.txt":      "hello",
		"sub/b.yaml": "k: v",
		"c.exe":      "MZ",
	})

	stdout, _, err := execute(t, "--dry-run")
	require.NoError(t, err)

	assert.Equal(t, "./a.txt\n./sub/b.yaml\n", stdout)
	_, statErr := os.Stat(config.DefaultOutput)
	assert.True(t, os.IsNotExist(statErr), "dry run must not write the dump")
}

func TestDumpConfigFileInWorkingDirectory(t *testing.T) {
	inTempTree(t, map[string]string{
		".textdump.yaml": "output: custom.txt\nextensions: [.go]\nnames: []\n",
		"a.txt":          "not included",
		"m.go":           "package m",
	})

	_, _, err := execute(t)
	require.NoError(t, err)

	data, err := os.ReadFile("custom.txt")
	require.NoError(t, err)
	assert.Equal(t, "# path: ./m.go\npackage m\n", string(data))
}

func TestDumpFlagOverridesConfigFile(t *testing.T) {
	inTempTree(t, map[string]string{
		".textdump.toml": "output = \"from-config.txt\"\n",
		"a.md":           "a",
	})

	_, _, err := execute(t, "--output", "from-flag.txt")
	require.NoError(t, err)

	_, err = os.Stat("from-flag.txt")
	assert.NoError(t, err)
	_, err = os.Stat("from-config.txt")
	assert.True(t, os.IsNotExist(err))
}

func TestDumpExplicitConfig(t *testing.T) {
	dir := inTempTree(t, map[string]string{"a.md": "a"})
	configPath := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("output: explicit.txt\n"), 0644))

	_, _, err := execute(t, "--config", configPath)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "explicit.txt"))
	assert.NoError(t, err)
}

func TestDumpInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		args    []string
		wantErr string
	}{
		{
			name:    "bad compress flag",
			args:    []string{"--compress", "gzip"},
			wantErr: "invalid configuration",
		},
		{
			name:    "bad log level flag",
			args:    []string{"--log-level", "loud"},
			wantErr: "invalid configuration",
		},
		{
			name:    "malformed config file",
			files:   map[string]string{".textdump.yaml": "extensions: [oops\n"},
			wantErr: "failed to load config",
		},
		{
			name:    "missing root",
			args:    []string{"--root", "nope"},
			wantErr: "failed to access directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inTempTree(t, tt.files)

			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDumpLogDir(t *testing.T) {
	inTempTree(t, map[string]string{"a.txt": "hello"})
	logDir := filepath.Join(t.TempDir(), "logs")

	_, _, err := execute(t, "--log-dir", logDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(logDir, "latest.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "=== DUMP SUMMARY ===")
	assert.Contains(t, string(data), "Status:       SUCCESS")
}

func TestExtensionsCommand(t *testing.T) {
	inTempTree(t, nil)

	stdout, _, err := execute(t, "extensions")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Extensions (19):")
	assert.Contains(t, stdout, "  .Dockerfile\n")
	assert.Contains(t, stdout, "Names (1):\n  dockerfile\n")
	assert.NotContains(t, stdout, "Excluded directories")
}

func TestExtensionsCommandUsesConfig(t *testing.T) {
	inTempTree(t, map[string]string{
		".textdump.yaml": "extensions: [.rs]\nexclude_dirs: [target]\n",
	})

	stdout, _, err := execute(t, "extensions")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Extensions (1):\n  .rs\n")
	assert.Contains(t, stdout, "Excluded directories (1):\n  target\n")
}

func TestHistoryEmpty(t *testing.T) {
	inTempTree(t, nil)
	t.Setenv(config.HomeEnvVar, filepath.Join(t.TempDir(), "home"))

	stdout, _, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded.")
}

func TestHistoryRecordListShowPrune(t *testing.T) {
	inTempTree(t, map[string]string{
		"a.txt":   "hello",
		"bad.txt": "\xff",
	})
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv(config.HomeEnvVar, home)

	// Without --history nothing is recorded
	_, _, err := execute(t)
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(home, "history.db"))
	assert.True(t, os.IsNotExist(statErr))

	_, _, err = execute(t, "--history")
	require.NoError(t, err)
	_, _, err = execute(t, "--history")
	require.NoError(t, err)

	stdout, _, err := execute(t, "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3, "header plus two runs: %s", stdout)
	assert.Contains(t, lines[0], "RUN")
	assert.Contains(t, lines[1], "project_files_dump.txt")

	stdout, _, err = execute(t, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(stdout), "\n"), 2)

	store, err := history.NewStore(filepath.Join(home, "history.db"))
	require.NoError(t, err)
	runs, err := store.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, runs, 1)

	stdout, _, err = execute(t, "history", "show", runs[0].ID[:8])
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run "+runs[0].ID)
	assert.Contains(t, stdout, "Unreadable: 1")
	assert.Contains(t, stdout, "./bad.txt: invalid UTF-8")

	_, _, err = execute(t, "history", "show", "no-such-run")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "run not found"))

	stdout, _, err = execute(t, "history", "prune", "--days", "0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted 2 run(s)")

	stdout, _, err = execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded.")
}

func TestHistoryDryRunIsNotRecorded(t *testing.T) {
	inTempTree(t, map[string]string{"a.txt": "hello"})
	dbPath := filepath.Join(t.TempDir(), "h.db")

	cfgPath := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("history:\n  enabled: true\n  db_path: "+dbPath+"\n"), 0644))

	_, _, err := execute(t, "--config", cfgPath, "--dry-run")
	require.NoError(t, err)
	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr))

	_, _, err = execute(t, "--config", cfgPath)
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(stdout), "\n"), 2)
}

func TestHistoryPruneRejectsNegativeDays(t *testing.T) {
	inTempTree(t, nil)
	_, _, err := execute(t, "history", "prune", "--days", "-1")
	require.Error(t, err)
}
