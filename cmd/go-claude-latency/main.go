// Package main is the entry point for the go-claude-latency CLI.
package main

import (
	"os"

	"github.com/penwyp/go-claude-latency/commands"
)

// Set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=$(git rev-parse --short HEAD)"
var (
	version = "dev"
	commit  = ""
)

func main() {
	commands.SetVersion(version, commit)
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
