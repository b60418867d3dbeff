// Package main submits one signup form from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	signupcmd "github.com/louisbranch/offlinecache/internal/cmd/signup"
	"github.com/louisbranch/offlinecache/internal/platform/config"
	"github.com/louisbranch/offlinecache/internal/services/signup/domain"
)

func main() {
	cfg, err := signupcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := signupcmd.Run(ctx, cfg, os.Stdout); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			config.ExitCodef(config.ExitUsage, "%v", err)
		}
		config.Exitf("%v", err)
	}
}
