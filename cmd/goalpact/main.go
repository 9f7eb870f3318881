package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"goalpact/cfg"
	"goalpact/internal/app"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := app.NewServer(ctx, config)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}
	defer server.Shutdown(context.Background())

	go func() {
		if err := server.RunOutboxWorker(ctx); err != nil {
			log.Printf("Outbox worker stopped: %v", err)
		}
	}()

	if err := server.Run(config.HTTPAddr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
