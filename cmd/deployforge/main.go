package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pendergraft/deployforge/internal/cli"
	"github.com/pendergraft/deployforge/internal/dispatch"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Execute(ctx, version)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", dispatch.Kind(err), err)
		os.Exit(1)
	}
}
