package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idelchi/redman/internal/config"
	"github.com/idelchi/redman/internal/logic"
	"github.com/idelchi/redman/pkg/redman"
)

// NewKeygenCommand creates a new cobra command for the keygen subcommand.
func NewKeygenCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keygen [flags]",
		Aliases: []string{"gen"},
		Short:   "Generate a new key",
		Long: `Generate a new key for the selected algorithm.
The key is printed as a transport string unless --output names a key file.
Files ending in .json or .jsonc are written as JSON, anything else in the line format.`,
		Args: cobra.NoArgs,
		RunE: run(cfg, func(logger *zap.Logger, streams logic.Streams) error {
			return logic.RunKeygen(cfg, logger, streams)
		}),
	}

	cmd.Flags().StringP("algorithm", "a", redman.DefaultAlgorithm, "Algorithm of the new key")
	cmd.Flags().StringP("output", "o", "", "Write a key file instead of printing the key")
	cmd.Flags().String("from-hex", "", "Wrap an existing hex-encoded cipher key instead of generating one")

	return cmd
}
