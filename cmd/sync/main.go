// Command sync runs one synchronization pass from the command line.
// It is intended for operators and cron jobs; the server process exposes
// the same operation over HTTP.
//
// Flags:
//
//	--kinds    comma-separated entity kinds to sync (default: all)
//	--full     resync everything instead of an incremental run
//	--dry-run  fetch and map without writing to DB
//
// Exit codes: 0 = success, 1 = error or run completed with errors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mottahub/sync-backend/internal/app"
	"github.com/mottahub/sync-backend/internal/config"
	"github.com/mottahub/sync-backend/internal/domain"
	"github.com/mottahub/sync-backend/internal/syncer"
)

func main() {
	kindsFlag := flag.String("kinds", "", "comma-separated entity kinds to sync (default: all)")
	fullFlag := flag.Bool("full", false, "resync everything instead of an incremental run")
	dryRunFlag := flag.Bool("dry-run", false, "fetch and map without writing to DB")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	var kinds []domain.EntityKind
	if *kindsFlag != "" {
		for _, s := range strings.Split(*kindsFlag, ",") {
			kind, err := domain.ParseKind(strings.TrimSpace(s))
			if err != nil {
				logger.Error("invalid kind", slog.String("error", err.Error()))
				os.Exit(1)
			}
			kinds = append(kinds, kind)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Sync.RunTimeout)
	defer cancel()

	s, closePool, err := app.BuildSyncer(ctx, cfg, logger)
	if err != nil {
		logger.Error("setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closePool()

	start := time.Now()
	summary, err := s.Run(ctx, syncer.Options{
		Incremental: !*fullFlag,
		Kinds:       kinds,
		DryRun:      *dryRunFlag,
		Trigger:     domain.TriggerCLI,
	})
	if err != nil {
		logger.Error("sync failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	os.Stdout.Write(append(out, '\n'))

	logger.Info("sync finished",
		slog.Bool("success", summary.Success),
		slog.Int("synced", summary.Synced),
		slog.Int("updated", summary.Updated),
		slog.Int("errors", summary.Errors),
		slog.Duration("duration", time.Since(start)),
	)

	if !summary.Success {
		os.Exit(1)
	}
}
