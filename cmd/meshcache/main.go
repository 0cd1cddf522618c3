package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/meshcache/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, command.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
