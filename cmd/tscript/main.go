package main

import (
	"os"

	"github.com/cwbudde/go-tscript/cmd/tscript/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
