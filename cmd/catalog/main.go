package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/niksmo/catalog/config"
	"github.com/niksmo/catalog/internal/app"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, closeApp := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	catalog := app.New(sigCtx, cfg)

	catalog.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	catalog.Close(ctx)
}
