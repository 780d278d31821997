package encryption

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/redman/internal/config"
	"github.com/idelchi/redman/internal/fileutil"
)

// Cipher encrypts and decrypts single messages.
// Implementations must allow concurrent calls.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

const (
	// flagExec marks a plaintext whose source file was executable.
	flagExec = 0x01

	ownerReadWrite = 0o600
	executableBits = 0o111
)

var (
	// ErrMissingFlags is returned when a decrypted file lacks the leading flags byte.
	ErrMissingFlags = errors.New("decrypted payload has no flags byte")
	// ErrUnknownFlags is returned when the flags byte carries bits Seal never sets.
	ErrUnknownFlags = errors.New("decrypted payload has unknown flags")
)

// Processor handles the encryption and decryption of files.
type Processor struct {
	// cfg contains runtime configuration options
	cfg *config.Config

	// cipher seals and opens file contents
	cipher Cipher

	// logger receives diagnostics
	logger *zap.Logger

	// out receives progress lines
	out io.Writer

	// results channels processing outcomes to the printer goroutine
	results chan Result
}

// NewProcessor creates a Processor for the files in cfg.
func NewProcessor(cfg *config.Config, cipher Cipher, logger *zap.Logger, out io.Writer) *Processor {
	return &Processor{
		cfg:     cfg,
		cipher:  cipher,
		logger:  logger,
		out:     out,
		results: make(chan Result, len(cfg.Files)),
	}
}

// ProcessFiles concurrently processes all files specified in the configuration.
// It returns the number of successfully processed files, the number of errors
// and the total size of the outputs.
//
//nolint:cyclop,gocognit
func (p *Processor) ProcessFiles() (processed, errored int, totalSize int64, err error) {
	group := errgroup.Group{}
	group.SetLimit(p.cfg.Parallel)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for result := range p.results {
			if result.Failed() {
				errored++

				p.logger.Error("processing failed", zap.String("file", result.Input), zap.Error(result.Error))

				continue
			}

			processed++

			totalSize += result.OutputSize

			if !p.cfg.Quiet {
				fmt.Fprintf(p.out, "Processed %q -> %q\n", result.Input, result.Output)
			}

			if p.cfg.Delete {
				if err := os.Remove(result.Input); err != nil {
					p.logger.Error("deleting input failed", zap.String("file", result.Input), zap.Error(err))
				} else if !p.cfg.Quiet {
					fmt.Fprintf(p.out, "Deleted %q\n", result.Input)
				}
			}
		}
	}()

	for _, file := range p.cfg.Files {
		group.Go(func() error {
			outPath := OutputPath(file, p.cfg)

			size, err := p.processFile(file, outPath)
			if err != nil {
				p.results <- Result{Input: file, Error: err}

				return err
			}

			p.results <- Result{Input: file, Output: outPath, OutputSize: size}

			return nil
		})
	}

	err = group.Wait()

	close(p.results)

	<-done // Wait for printer to finish

	if err != nil {
		return processed, errored, totalSize, fmt.Errorf("processing files: %w", err)
	}

	return processed, errored, totalSize, nil
}

// Seal encrypts data, recording in a leading flags byte whether it was executable.
func Seal(cipher Cipher, data []byte, isExec bool) (string, error) {
	var flags byte

	if isExec {
		flags |= flagExec
	}

	plaintext := make([]byte, 0, len(data)+1)
	plaintext = append(plaintext, flags)
	plaintext = append(plaintext, data...)

	ciphertext, err := cipher.Encrypt(string(plaintext))
	if err != nil {
		return "", fmt.Errorf("encrypting: %w", err)
	}

	return ciphertext, nil
}

// Open reverses Seal. Surrounding whitespace in ciphertext is ignored.
func Open(cipher Cipher, ciphertext string) ([]byte, bool, error) {
	plaintext, err := cipher.Decrypt(strings.TrimSpace(ciphertext))
	if err != nil {
		return nil, false, fmt.Errorf("decrypting: %w", err)
	}

	if plaintext == "" {
		return nil, false, ErrMissingFlags
	}

	if flags := plaintext[0]; flags&^flagExec != 0 {
		return nil, false, fmt.Errorf("%w: 0x%02x", ErrUnknownFlags, flags)
	}

	return []byte(plaintext[1:]), plaintext[0]&flagExec != 0, nil
}

// processFile handles the encryption or decryption of a single file.
// It writes to a temporary file and performs an atomic rename on completion.
func (p *Processor) processFile(filename, outPath string) (size int64, err error) {
	tc, err := fileutil.NewTempContext(filename, outPath)
	if err != nil {
		return 0, fmt.Errorf("preparing atomic write: %w", err)
	}

	defer tc.CleanupOnError(&err)

	input, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return 0, fmt.Errorf("reading input file: %w", err)
	}

	perm := os.FileMode(ownerReadWrite)

	if p.cfg.Decrypt {
		plaintext, isExec, err := Open(p.cipher, string(input))
		if err != nil {
			return 0, err
		}

		if isExec {
			perm |= executableBits
		}

		if _, err := tc.TmpFile.Write(plaintext); err != nil {
			return 0, fmt.Errorf("writing output: %w", err)
		}
	} else {
		ciphertext, err := Seal(p.cipher, input, tc.IsExec)
		if err != nil {
			return 0, err
		}

		if _, err := io.WriteString(tc.TmpFile, ciphertext+"\n"); err != nil {
			return 0, fmt.Errorf("writing output: %w", err)
		}
	}

	if err := tc.Commit(outPath, perm); err != nil {
		return 0, err
	}

	p.logger.Debug("wrote output", zap.String("input", filename), zap.String("output", outPath))

	size, err = fileutil.FinalizeOutput(outPath, p.cfg.PreserveTimestamps, tc.SrcInfo.ModTime())
	if err != nil {
		return 0, fmt.Errorf("finalizing output: %w", err)
	}

	return size, nil
}

// OutputPath generates the output file path based on the input filename
// and the configured suffixes for encryption/decryption.
func OutputPath(filename string, cfg *config.Config) string {
	ext := cfg.Suffixes.Encrypt

	if cfg.Decrypt {
		filename = strings.TrimSuffix(filename, cfg.Suffixes.Encrypt)
		ext = cfg.Suffixes.Decrypt
	}

	return filepath.Join(filepath.Dir(filename), filepath.Base(filename)+ext)
}
