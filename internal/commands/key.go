package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idelchi/redman/internal/config"
	"github.com/idelchi/redman/internal/logic"
)

// NewKeyCommand creates a new cobra command showing the contents of a key.
func NewKeyCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key [flags]",
		Short: "Show the algorithm and components of a key",
		Args:  cobra.NoArgs,
		RunE: run(cfg, func(_ *zap.Logger, streams logic.Streams) error {
			return logic.RunShow(cfg, streams)
		}),
	}

	addKeyFlags(cmd)
	cmd.Flags().Bool("reveal", false, "Print component values instead of redacting them")

	return cmd
}

// NewAlgorithmsCommand creates a new cobra command listing the available algorithms.
func NewAlgorithmsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "algorithms",
		Aliases: []string{"algs"},
		Short:   "List the available algorithms",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			logic.RunAlgorithms(cmd.OutOrStdout())
		},
	}
}
