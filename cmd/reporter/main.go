package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"EquitySheet/internal/collector"
	"EquitySheet/internal/config"
	"EquitySheet/internal/logger"
	"EquitySheet/internal/narrative"
	"EquitySheet/internal/notifier"
	"EquitySheet/internal/scheduler"
	"EquitySheet/internal/service"
	"EquitySheet/internal/store"
)

func main() {
	once := flag.String("once", "", "build a single report for CODE, print it as JSON and exit")
	asOfFlag := flag.String("as-of", "", "as-of date (YYYY-MM-DD) for -once, defaults to today")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	logger.SetGlobalLogger(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	provider := newProvider(cfg)
	opts := []service.Option{}
	if cfg.DataSource.BenchmarkSymbol != "" {
		opts = append(opts, service.WithBenchmark(collector.NewYahooBenchmark(cfg.DataSource.BenchmarkSymbol, cfg.Proxy)))
	}
	log.Info().Str("provider", provider.Name()).Str("benchmark", cfg.DataSource.BenchmarkSymbol).Msg("data source configured")

	st := newStore(cfg, log)
	defer st.Close()

	svc := service.New(provider, st, narrative.NewTemplateGenerator(), cfg.Engine, cfg.Batch.Concurrency, log, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once != "" {
		if err := runOnce(ctx, svc, *once, *asOfFlag); err != nil {
			log.Error().Err(err).Str("identifier", *once).Msg("build report")
			st.Close()
			os.Exit(1)
		}
		return
	}

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sender = tn
	} else {
		log.Warn().Msg("telegram not configured, digests will only be logged")
	}

	sched := scheduler.NewScheduler(ctx, svc, sender, st, cfg.Watchlist, log)
	if err := sched.Register(cfg.Schedule.BatchCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, running batch now")
		go func() {
			if _, err := sched.RunBatch(ctx); err != nil {
				log.Error().Err(err).Msg("startup batch")
			}
		}()
	}

	log.Info().Int("watchlist", len(cfg.Watchlist)).Str("cron", cfg.Schedule.BatchCron).Msg("EquitySheet is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
}

func newProvider(cfg *config.Config) collector.Provider {
	if cfg.DataSource.Provider == config.ProviderHTTP {
		return collector.NewHTTPProvider(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	return collector.NewFileProvider(cfg.DataSource.Dir)
}

func newStore(cfg *config.Config, log zerolog.Logger) store.Store {
	if cfg.Database.SQLitePath == "" {
		return store.NewNoopStore()
	}
	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite store failed, using noop")
		return store.NewNoopStore()
	}
	return st
}

func runOnce(ctx context.Context, svc *service.ReportService, identifier, asOfFlag string) error {
	asOf := time.Now()
	if asOfFlag != "" {
		t, err := time.Parse("2006-01-02", asOfFlag)
		if err != nil {
			return fmt.Errorf("parse -as-of: %w", err)
		}
		asOf = t
	}
	r, err := svc.Build(ctx, identifier, asOf)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}
