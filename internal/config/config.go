// Package config defines the runtime configuration of the redman CLI.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/idelchi/redman/pkg/redman"
)

// Key selects the key material: a transport string or a key file, never both.
type Key struct {
	// String is a transport string produced by keygen
	String string `mapstructure:"key" validate:"exclusive=File" label:"--key"`

	// File is the path to a key file
	File string `mapstructure:"key-file" label:"--key-file"`
}

// Suffixes controls output file naming.
type Suffixes struct {
	// Encrypt is appended to encrypted files
	Encrypt string `mapstructure:"encrypt-ext" validate:"required" label:"--encrypt-ext"`

	// Decrypt is appended to decrypted files after stripping Encrypt
	Decrypt string `mapstructure:"decrypt-ext" label:"--decrypt-ext"`
}

// Config holds the application configuration.
type Config struct {
	// Show the configuration and exit
	Show bool

	// Parallel is the number of concurrent workers
	Parallel int `validate:"min=1" label:"--parallel"`

	// Quiet suppresses non-error output
	Quiet bool

	// Verbose enables debug logging
	Verbose bool `validate:"excluded_with=Quiet" label:"--verbose"`

	// Delete removes the input file after successful processing
	Delete bool

	// Stats prints a summary after processing
	Stats bool

	// Dry lists what would be processed without writing anything
	Dry bool

	// PreserveTimestamps copies the input modification time to the output
	PreserveTimestamps bool `mapstructure:"preserve-timestamps"`

	// Key material flags
	Key Key `mapstructure:",squash"`

	// Suffixes for output files
	Suffixes Suffixes `mapstructure:",squash"`

	// Stdin processes standard input instead of files
	Stdin bool

	// Decrypt is set by the decrypt command
	Decrypt bool `mapstructure:"-"`

	// Algorithm for keygen
	Algorithm string `label:"--algorithm"`

	// Output is the key file written by keygen; empty prints the transport string
	Output string

	// FromHex wraps an existing hex-encoded cipher key in keygen
	FromHex string `mapstructure:"from-hex" label:"--from-hex"`

	// Reveal prints key component values in the key command
	Reveal bool

	// Files are the positional arguments
	Files []string `mapstructure:"-"`
}

// ErrNoKey is returned when a command needs key material and none was given.
var ErrNoKey = errors.New("one of --key or --key-file is required")

// Validate checks the configuration against its struct tags and cross-field rules.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := registerExclusive(validate); err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	if c.Algorithm != "" && !slices.Contains(redman.Algorithms(), c.Algorithm) {
		return fmt.Errorf("%w: %q (available: %v)", redman.ErrUnknownAlgorithm, c.Algorithm, redman.Algorithms())
	}

	return nil
}

// RequireKey checks that key material was provided.
func (c *Config) RequireKey() error {
	if c.Key.String == "" && c.Key.File == "" {
		return ErrNoKey
	}

	return nil
}
