package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pollgov/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP until SIGINT/SIGTERM.
func main() {
	log.Println("pollgov api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		log.Printf("api shutdown close failed: %v", err)
	}
	if runErr != nil {
		log.Fatalf("pollgov api stopped with error: %v", runErr)
	}
}
