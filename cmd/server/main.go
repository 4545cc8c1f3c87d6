// Command server runs the sync backend HTTP server: manual sync triggers,
// vendor webhooks, run history, and the optional interval scheduler.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/mottahub/sync-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
