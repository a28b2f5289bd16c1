package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"StonksBot/internal/collector"
	"StonksBot/internal/config"
	"StonksBot/internal/notifier"
	"StonksBot/internal/recorder"
	"StonksBot/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StonksBot starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.DataSource.LookbackDays)

	// Init publisher
	var pub scheduler.Publisher
	if cfg.Run.DryRun {
		log.Println("[INFO] DRY_RUN enabled, posts will only be logged")
		pub = notifier.NewDryRunPublisher()
	} else {
		pub = notifier.NewBlueskyPublisher(cfg.Bluesky.Host, cfg.Bluesky.Username, cfg.Bluesky.Password,
			cfg.Bluesky.AltText, cfg.Proxy)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := scheduler.NewRunner(ctx, col, pub, rec, scheduler.Options{
		Indices:      cfg.Indices,
		RisingImage:  cfg.Images.Rising,
		FallingImage: cfg.Images.Falling,
		MaxSizeKB:    cfg.Images.MaxSizeKB,
		Policy:       scheduler.Policy(cfg.Run.OnPublishError),
		DryRun:       cfg.Run.DryRun,
	})

	if cfg.Run.Mode == config.ModeOnce {
		if _, err := runner.RunOnce(ctx); err != nil {
			rec.Close()
			log.Fatalf("[FATAL] run: %v", err)
		}
		return
	}

	if err := runner.Schedule(cfg.Run.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	runner.Start()
	log.Printf("[INFO] StonksBot is running on %q. Press Ctrl+C to stop.", cfg.Run.Cron)

	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	runner.Stop()
	log.Println("[INFO] StonksBot stopped")
}
