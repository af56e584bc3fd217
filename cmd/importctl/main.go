// Command importctl runs catalog imports from the command line against the
// configured store, using the same pipeline as the HTTP API.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
