package main

import (
	"os"

	"github.com/quantlab/sentiback/cmd/sentiback/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
