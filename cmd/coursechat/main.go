// Package main is the coursechat CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/bull/coursechat/cmd/coursechat/commands"
)

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
