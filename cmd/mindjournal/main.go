package main

import (
	"os"

	"github.com/wonny/mindjournal/cmd/mindjournal/commands"
)

// main is the entry point for the mindjournal CLI
// ⭐ single CLI entry point: go run ./cmd/mindjournal [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
