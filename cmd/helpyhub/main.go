package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/YanKarpov/HelpyHub/internal/config"
	"github.com/YanKarpov/HelpyHub/internal/feedback"
	"github.com/YanKarpov/HelpyHub/internal/scheduler"
	"github.com/YanKarpov/HelpyHub/internal/sheets"
	"github.com/YanKarpov/HelpyHub/internal/storage"
	"github.com/YanKarpov/HelpyHub/internal/telegram"
	"github.com/YanKarpov/HelpyHub/pkg/logger"
	"github.com/YanKarpov/HelpyHub/pkg/metrics"
)

func main() {
	// 1. Load configuration
	cfg := config.MustLoad()

	// 2. Init structured logger (zap based)
	log := logger.New(cfg.LogLevel)
	defer logger.Sync(log)

	log.Infow("starting helpyhub", "version", cfg.Version)

	// 3. Root context with graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Expose Prometheus metrics endpoint
	metricsSrv := metrics.MustServe(cfg.MetricsAddr, log)

	// 5. Shared key-value store: the single source of truth for all
	// per-user conversation state
	kv, err := storage.NewRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalw("init redis failed", "addr", cfg.RedisAddr, "err", err)
	}
	defer kv.Close()

	// 6. Ticket logs: local SQLite archive plus the optional spreadsheet
	archive, err := storage.NewArchive(cfg.DBPath)
	if err != nil {
		log.Fatalw("init ticket archive failed", "path", cfg.DBPath, "err", err)
	}
	defer archive.Close()

	logs := []feedback.TicketLog{archive}
	if cfg.SpreadsheetID != "" {
		sheet := sheets.New(cfg.SheetsToken, cfg.SpreadsheetID,
			sheets.WithRateLimit(1, 2),
			sheets.WithLogger(log),
		)
		logs = append(logs, sheet)
	}

	// 7. Profanity filter
	filter, err := feedback.LoadProfanityFilter(cfg.BadwordsPath)
	if err != nil {
		log.Fatalw("load badwords failed", "path", cfg.BadwordsPath, "err", err)
	}

	// 8. Telegram bot and the lifecycle coordinator; the bot doubles as the
	// coordinator's relay, so they are wired in sequence
	tgBot, err := telegram.New(cfg.BotToken, cfg.GroupChatID, cfg.SupportThreadID, log)
	if err != nil {
		log.Fatalw("failed to initialize telegram bot", "err", err)
	}
	svc := feedback.New(kv, tgBot, logs, filter, log)
	tgBot.AttachService(svc)

	// 9. Periodic open-tickets metrics sweep
	sweeper := scheduler.New(cfg.SweepInterval, svc.SweepMetrics, log)
	go sweeper.Run(ctx)

	// 10. Start Telegram bot (main interface)
	go tgBot.Run(ctx)

	// 11. Wait for termination signal
	<-ctx.Done()
	log.Info("shutdown signal received, shutting down ...")

	// 12. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sweeper.Shutdown()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("metrics server shutdown error", "err", err)
	}

	log.Info("bye")
}
