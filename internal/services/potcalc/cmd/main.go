package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/LeonardoBeccarini/plantcare/internal/services/potcalc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := potcalc.NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
