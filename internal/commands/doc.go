// Package commands provides the command-line interface for the redman tool.
//
// It implements commands for:
//   - key generation and inspection
//   - encryption
//   - decryption
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper.
package commands
