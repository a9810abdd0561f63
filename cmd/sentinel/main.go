package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"GapSentinel/internal/collector"
	"GapSentinel/internal/config"
	"GapSentinel/internal/dashboard"
	"GapSentinel/internal/metrics"
	"GapSentinel/internal/notifier"
	"GapSentinel/internal/recorder"
	"GapSentinel/internal/runner"
	"GapSentinel/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run a single replay, print the report and exit")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] GapSentinel starting...")

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
	if cfg.Market.CSVDir != "" {
		fetcher = collector.NewCSVFetcher(cfg.Market.CSVDir)
	} else {
		fetcher = collector.NewBinanceFetcher(cfg.Exchange.BaseURL, cfg.Exchange.APIKey, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	col := collector.NewCollector(fetcher, cfg.CollectorOptions())

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	run := runner.New(col, cfg.StrategyParams(), cfg.Workers, m)

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
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}
	dash := dashboard.New(reg)
	sched := scheduler.NewScheduler(ctx, run, rec, tn, dash)

	if *once {
		report, err := sched.RunNow()
		if err != nil {
			log.Fatalf("[FATAL] replay: %v", err)
		}
		fmt.Println(notifier.FormatReport(report))
		return
	}

	if err := sched.RegisterAll(cfg.Schedule.ReplayCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Dashboard, health and metrics
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: dash.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("[INFO] dashboard listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] http server: %v", err)
			cancel()
		}
	}()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing replay now")
		go func() {
			if _, err := sched.RunNow(); err != nil {
				log.Printf("[ERROR] startup replay: %v", err)
			}
		}()
	}

	log.Println("[INFO] GapSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] GapSentinel stopped")
}
