package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/solmirror/tradescope/app/collector"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := collector.Initialize(ctx)
	defer app.Close()

	app.Run(ctx)
}
