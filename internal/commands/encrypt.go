package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idelchi/redman/internal/config"
	"github.com/idelchi/redman/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags] [files/directories...]",
		Aliases: []string{"enc"},
		Short:   "Encrypt files, or standard input with --stdin",
		Args:    cobra.ArbitraryArgs,
		PreRunE: func(_ *cobra.Command, args []string) error {
			cfg.Files = args

			return nil
		},
		RunE: run(cfg, func(logger *zap.Logger, streams logic.Streams) error {
			return logic.Run(cfg, logger, streams)
		}),
	}

	addKeyFlags(cmd)
	cmd.Flags().Bool("stdin", false, "Encrypt standard input to standard output")

	return cmd
}
