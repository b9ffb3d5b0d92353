package main

import (
	"os"

	"github.com/biomindlabs/biorag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
