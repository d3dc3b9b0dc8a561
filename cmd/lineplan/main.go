package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/vsinha/lineplan/pkg/interfaces/cli/commands"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := &commands.App{
		Color: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
	return commands.NewRootCmd(app).Execute()
}
