package logic

import (
	"fmt"
	"io"
	"strings"

	"github.com/idelchi/gogen/pkg/key"
	"go.uber.org/zap"

	"github.com/idelchi/redman/internal/config"
	"github.com/idelchi/redman/pkg/redman"
)

const redacted = "<REDACTED>"

// RunKeygen creates a key for the configured algorithm.
// The transport string is printed, or written as a key file when an output path is set.
func RunKeygen(cfg *config.Config, logger *zap.Logger, streams Streams) error {
	name := cfg.Algorithm
	if name == "" {
		name = redman.DefaultAlgorithm
	}

	engine, err := redman.New(name)
	if err != nil {
		return err //nolint:wrapcheck
	}

	var transport string

	if cfg.FromHex != "" {
		raw, err := key.FromHex(strings.TrimSpace(cfg.FromHex))
		if err != nil {
			return fmt.Errorf("decoding --from-hex: %w", err)
		}

		transport, err = engine.CreateKeyFrom(raw)
		if err != nil {
			return fmt.Errorf("wrapping key: %w", err)
		}
	} else {
		transport, err = engine.CreateKey()
		if err != nil {
			return fmt.Errorf("generating key: %w", err)
		}
	}

	logger.Debug("created key", zap.String("algorithm", name), zap.Bool("imported", cfg.FromHex != ""))

	if cfg.Output == "" {
		_, err := fmt.Fprintln(streams.Out, transport)

		return err //nolint:wrapcheck
	}

	if err := engine.InitializeEncryption(transport); err != nil {
		return fmt.Errorf("initializing key: %w", err)
	}

	if err := engine.SaveKey(cfg.Output); err != nil {
		return fmt.Errorf("saving key: %w", err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(streams.Err, "Wrote %s key to %q\n", name, cfg.Output)
	}

	return nil
}

// RunShow prints the algorithm and component names of a key.
// Component values are redacted unless reveal is set.
func RunShow(cfg *config.Config, streams Streams) error {
	engine, err := loadEngine(cfg)
	if err != nil {
		return err
	}

	components, err := engine.ToKey()
	if err != nil {
		return fmt.Errorf("exporting key: %w", err)
	}

	fmt.Fprintf(streams.Out, "%s=%s\n", redman.EntryAlgorithm, engine.Name())

	for _, name := range []string{redman.ComponentCipherKey, redman.ComponentIV} {
		value := redacted
		if cfg.Reveal {
			value = components[name]
		}

		fmt.Fprintf(streams.Out, "%s=%s\n", name, value)
	}

	return nil
}

// RunAlgorithms lists the registered algorithms, marking the default.
func RunAlgorithms(w io.Writer) {
	for _, name := range redman.Algorithms() {
		if name == redman.DefaultAlgorithm {
			fmt.Fprintf(w, "%s (default)\n", name)

			continue
		}

		fmt.Fprintln(w, name)
	}
}
