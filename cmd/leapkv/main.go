// Package main is the leapkv command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapkv/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
