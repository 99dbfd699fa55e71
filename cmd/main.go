package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/asynkron/applypatch/internal/cli"
)

// main runs the applypatch command line and exits with its status code.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
