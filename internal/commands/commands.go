package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/idelchi/redman/internal/config"
	"github.com/idelchi/redman/internal/logging"
	"github.com/idelchi/redman/internal/logic"
)

// envPrefix prefixes the environment variable of every flag.
const envPrefix = "REDMAN"

// binder loads flags and environment variables into a configuration.
type binder struct {
	viper *viper.Viper
	cfg   *config.Config
}

func newBinder(cfg *config.Config) *binder {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &binder{viper: v, cfg: cfg}
}

// load binds the flags of cmd, unmarshals them into the configuration and validates it.
func (b *binder) load(cmd *cobra.Command, _ []string) error {
	if err := b.viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if err := b.viper.Unmarshal(b.cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	return b.cfg.Validate() //nolint:wrapcheck
}

// action is the body of a command once the configuration is loaded.
type action func(logger *zap.Logger, streams logic.Streams) error

// run wraps fn with the shared --show handling and logger setup.
func run(cfg *config.Config, fn action) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if cfg.Show {
			return show(cmd.OutOrStdout(), cfg)
		}

		logger := logging.New(cmd.ErrOrStderr(), cfg.Verbose, cfg.Quiet)
		defer logger.Sync() //nolint:errcheck

		return fn(logger, logic.Streams{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
			Err: cmd.ErrOrStderr(),
		})
	}
}

// show prints the configuration with the key string redacted.
func show(w io.Writer, cfg *config.Config) error {
	redacted := *cfg
	if redacted.Key.String != "" {
		redacted.Key.String = "<REDACTED>"
	}

	out, err := yaml.Marshal(redacted)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	_, err = w.Write(out)

	return err //nolint:wrapcheck
}

// addKeyFlags registers the flags selecting key material.
func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("key", "k", "", "Key transport string, as printed by keygen")
	cmd.Flags().StringP("key-file", "f", "", "Path to a key file written by keygen")
}
