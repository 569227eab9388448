// Package main is the entry point for the dashq CLI binary.
package main

import (
	"os"

	cli "dashquery/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
