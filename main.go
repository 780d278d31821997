// Command redman generates keys and encrypts or decrypts strings and files.
package main

import (
	"os"

	"github.com/idelchi/redman/internal/commands"
	"github.com/idelchi/redman/internal/config"
)

// version is set at build time.
var version = "unknown"

func main() {
	var cfg config.Config

	if err := commands.NewRootCommand(&cfg, version).Execute(); err != nil {
		os.Exit(1)
	}
}
