package main

import (
	"os"

	"github.com/pathway-sim/pathway-sim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
