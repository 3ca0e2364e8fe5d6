package main

import (
	"os"

	"github.com/chcfuzz/bugreduce/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
