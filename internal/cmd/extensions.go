package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewExtensionsCommand creates the 'textdump extensions' command
func NewExtensionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extensions",
		Short: "Show the effective allow-set",
		Long: `Print the file extensions and exact file names that select a file for
the dump, after the config file has been applied. The file's name and
extension are lower-cased before lookup, so only lower-case entries match.`,
		Args: cobra.NoArgs,
		RunE: runExtensions,
	}
}

func runExtensions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Extensions (%d):\n", len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		fmt.Fprintf(out, "  %s\n", ext)
	}

	fmt.Fprintf(out, "Names (%d):\n", len(cfg.Names))
	for _, name := range cfg.Names {
		fmt.Fprintf(out, "  %s\n", name)
	}

	if len(cfg.ExcludeDirs) > 0 {
		fmt.Fprintf(out, "Excluded directories (%d):\n", len(cfg.ExcludeDirs))
		for _, dir := range cfg.ExcludeDirs {
			fmt.Fprintf(out, "  %s\n", dir)
		}
	}

	return nil
}
