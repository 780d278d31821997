// Package logic implements the core business logic for key handling and file encryption/decryption.
package logic

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/idelchi/redman/internal/config"
	"github.com/idelchi/redman/internal/encryption"
	"github.com/idelchi/redman/pkg/redman"
)

var (
	// ErrNoInput is returned when neither files nor --stdin were given.
	ErrNoInput = errors.New("no files given and --stdin not set")
	// ErrStdinWithFiles is returned when --stdin is combined with file arguments.
	ErrStdinWithFiles = errors.New("--stdin cannot be combined with file arguments")
)

// Streams are the standard streams a command reads from and writes to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run is the main logic of the encrypt and decrypt commands.
func Run(cfg *config.Config, logger *zap.Logger, streams Streams) error {
	engine, err := loadEngine(cfg)
	if err != nil {
		return err
	}

	logger.Debug("loaded key", zap.String("algorithm", engine.Name()), zap.Bool("decrypt", cfg.Decrypt))

	if cfg.Stdin {
		if len(cfg.Files) > 0 {
			return ErrStdinWithFiles
		}

		return runStdin(cfg, engine, streams)
	}

	if len(cfg.Files) == 0 {
		return ErrNoInput
	}

	start := time.Now()

	scanned, err := resolveFiles(cfg)
	if err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	excluded := scanned - len(cfg.Files)

	logger.Debug("resolved files", zap.Int("scanned", scanned), zap.Int("selected", len(cfg.Files)))

	if cfg.Dry {
		dryRun(cfg, streams, scanned, excluded, start)

		return nil
	}

	processed, errored, totalSize, err := encryption.NewProcessor(cfg, engine, logger, streams.Out).ProcessFiles()

	logger.Debug("processing finished", zap.Duration("duration", time.Since(start)))

	if cfg.Stats {
		printStats(streams.Err, scanned, excluded, processed, errored, totalSize, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("running logic: %w", err)
	}

	return nil
}

// loadEngine builds an initialized engine from the key flags.
func loadEngine(cfg *config.Config) (*redman.Cipher, error) {
	if err := cfg.RequireKey(); err != nil {
		return nil, err
	}

	if cfg.Key.File != "" {
		engine, err := redman.FromKeyFile(cfg.Key.File)
		if err != nil {
			return nil, fmt.Errorf("loading key file: %w", err)
		}

		return engine, nil
	}

	engine, err := redman.FromKeyString(strings.TrimSpace(cfg.Key.String))
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}

	return engine, nil
}

// runStdin treats standard input as a single message.
func runStdin(cfg *config.Config, engine *redman.Cipher, streams Streams) error {
	input, err := io.ReadAll(streams.In)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	if cfg.Decrypt {
		plaintext, err := engine.Decrypt(strings.TrimSpace(string(input)))
		if err != nil {
			return fmt.Errorf("decrypting stdin: %w", err)
		}

		_, err = io.WriteString(streams.Out, plaintext)

		return err //nolint:wrapcheck
	}

	ciphertext, err := engine.Encrypt(string(input))
	if err != nil {
		return fmt.Errorf("encrypting stdin: %w", err)
	}

	_, err = fmt.Fprintln(streams.Out, ciphertext)

	return err //nolint:wrapcheck
}

// resolveFiles expands directories into the files they contain and keeps only
// the files relevant to the current mode: encrypted files when decrypting,
// everything else when encrypting.
// Returns the total number of files scanned before filtering.
//
//nolint:cyclop
func resolveFiles(cfg *config.Config) (int, error) {
	var (
		files   []string
		scanned int
	)

	seen := make(map[string]struct{})

	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}

		seen[path] = struct{}{}
		scanned++

		if strings.HasSuffix(path, cfg.Suffixes.Encrypt) == cfg.Decrypt {
			files = append(files, path)
		}
	}

	for _, arg := range cfg.Files {
		info, err := os.Stat(arg)
		if err != nil {
			return scanned, fmt.Errorf("stat %q: %w", arg, err)
		}

		if !info.IsDir() {
			add(arg)

			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.Type().IsRegular() {
				add(path)
			}

			return nil
		})
		if err != nil {
			return scanned, fmt.Errorf("walking %q: %w", arg, err)
		}
	}

	cfg.Files = files

	return scanned, nil
}

// dryRun previews what would be processed without actually encrypting/decrypting.
func dryRun(cfg *config.Config, streams Streams, scanned, excluded int, start time.Time) {
	var totalSize int64

	for _, file := range cfg.Files {
		if !cfg.Quiet {
			fmt.Fprintf(streams.Out, "Would process %q -> %q\n", file, encryption.OutputPath(file, cfg))
		}

		if info, err := os.Stat(file); err == nil {
			totalSize += info.Size()
		}
	}

	if cfg.Stats {
		printStats(streams.Err, scanned, excluded, len(cfg.Files), 0, totalSize, time.Since(start))
	}
}

func printStats(w io.Writer, scanned, excluded, processed, errored int, totalSize int64, duration time.Duration) {
	fmt.Fprintf(w, "\nStats\n")
	fmt.Fprintf(w, "  Scanned:   %d\n", scanned)
	fmt.Fprintf(w, "  Excluded:  %d\n", excluded)
	fmt.Fprintf(w, "  Processed: %d\n", processed)
	fmt.Fprintf(w, "  Errors:    %d\n", errored)
	//nolint:gosec // totalSize is always non-negative (sum of file sizes)
	fmt.Fprintf(w, "  Size:      %s\n", humanize.IBytes(uint64(max(0, totalSize))))
	fmt.Fprintf(w, "  Duration:  %s\n", duration.Round(time.Millisecond))
}
