package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sagelabs/widgetlab/internal/cli"
)

// main is the entrypoint for the widgetlab binary.
func main() {
	// Use a minimal logger until the configured one takes over.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	return cli.Execute(args, outW)
}
