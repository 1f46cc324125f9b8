package main

import (
	"os"

	"github.com/lf-pro/cro/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
