// Package main provides the entry point for the splitbook CLI.
package main

import (
	"github.com/splitbook/splitbook/cmd/splitbook/cmd"
)

// Version information populated by the release build.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd.Execute(version, commit)
}
