// Package main is the entry point for the clientcore binary.
package main

import (
	"os"

	"clientcore/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
