package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idelchi/redman/internal/config"
	"github.com/idelchi/redman/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
// Without arguments it decrypts every encrypted file below the current directory.
func NewDecryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "decrypt [flags] [files/directories...]",
		Aliases: []string{"dec"},
		Short:   "Decrypt files, or standard input with --stdin",
		Args:    cobra.ArbitraryArgs,
		PreRunE: func(_ *cobra.Command, args []string) error {
			cfg.Decrypt = true

			switch {
			case len(args) > 0:
				cfg.Files = args
			case !cfg.Stdin:
				cfg.Files = []string{"."}
			}

			return nil
		},
		RunE: run(cfg, func(logger *zap.Logger, streams logic.Streams) error {
			return logic.Run(cfg, logger, streams)
		}),
	}

	addKeyFlags(cmd)
	cmd.Flags().Bool("stdin", false, "Decrypt standard input to standard output")

	return cmd
}
