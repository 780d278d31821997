package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/idelchi/redman/internal/config"
)

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	binder := newBinder(cfg)

	root := &cobra.Command{
		Use:   "redman [flags] command [flags]",
		Short: "Symmetric encryption for strings and files",
		Long: `A symmetric encryption utility built on interchangeable authenticated algorithms.
Provides commands for key generation, key inspection, encryption, and decryption.
Every flag can also be set through an environment variable, e.g. REDMAN_KEY_FILE.`,
		Version:           version,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: binder.load,
	}

	root.SetVersionTemplate("{{ .Version }}\n")

	flags := root.PersistentFlags()

	flags.BoolP("show", "s", false, "Show the configuration and exit")
	flags.IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.BoolP("delete", "d", false, "Delete the original file after successful encryption/decryption")
	flags.Bool("stats", false, "Print a summary after processing")
	flags.Bool("dry", false, "Show what would be processed without writing anything")
	flags.Bool("preserve-timestamps", false, "Copy the modification time of inputs to outputs")
	flags.String("encrypt-ext", ".res", "Suffix to append to encrypted files")
	flags.String("decrypt-ext", "", "Suffix to append to decrypted files, after stripping the encrypted suffix")

	root.AddCommand(
		NewKeygenCommand(cfg),
		NewKeyCommand(cfg),
		NewEncryptCommand(cfg),
		NewDecryptCommand(cfg),
		NewAlgorithmsCommand(),
	)

	return root
}
