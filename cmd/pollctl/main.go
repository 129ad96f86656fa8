package main

import (
	"os"
)

// pollctl drives a poll manager kept in a local bbolt file. Every command
// runs at the block height given by --height.
func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
