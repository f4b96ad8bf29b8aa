package main

import (
	"os"

	"github.com/wonny/totw/cmd/totw/commands"
)

// main is the entry point for the totw CLI.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
