package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for textdump.
// Invoked without a subcommand it writes the dump.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "textdump",
		Short: "Concatenate every text file in a tree into one dump file",
		Long: `textdump walks the current directory top-down, selects files whose
extension (or exact name) is in the text allow-set, and writes each one as

  # path: <path>
  <content>

into project_files_dump.txt.

Run without flags it needs no configuration. A .textdump.yaml, .textdump.yml or
.textdump.toml in the working directory changes the defaults, and CLI flags
override the file.

Examples:
  textdump                          # Dump the current directory
  textdump --dry-run                # List what would be dumped
  textdump --root src --output all.txt
  textdump --compress zstd          # Write project_files_dump.txt.zst
  textdump --history                # Record the run in ~/.textdump/history.db`,
		Version: Version,
		Args:    cobra.NoArgs,
		RunE:    runDump,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the error once
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .textdump.yaml, .textdump.yml or .textdump.toml)")
	cmd.Flags().String("root", "", "Directory to walk (default: .)")
	cmd.Flags().String("output", "", "Dump file, relative to the root unless absolute (default: project_files_dump.txt)")
	cmd.Flags().String("log-level", "", "Console log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for per-run log files")
	cmd.Flags().String("compress", "", "Output compression: none, zstd")
	cmd.Flags().Bool("dry-run", false, "List the files that would be dumped without writing anything")
	cmd.Flags().Bool("history", false, "Record the run in the history database")

	cmd.AddCommand(NewExtensionsCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
