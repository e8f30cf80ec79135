// Package main provides the entry point for the realty-crm command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/txn2/realty-crm/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(cli.GetExitCode(err))
}
