package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"wager-platform/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := app.NewServer()
	if err != nil {
		log.Fatal(err)
	}

	if err := server.Start(ctx); err != nil {
		log.Fatal(err)
	}
}
