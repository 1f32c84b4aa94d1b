// Package main is the framesource command line tool. It inspects, plays back and converts
// recorded depth datasets and live depth sensors.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.viam.com/framesource/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewLogger("framesource")
	if err := newApp(logger).RunContext(ctx, os.Args); err != nil {
		logger.Fatal(err)
	}
}
