package main

import (
	"os"

	"github.com/ostafen/unjffs2/cmd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
