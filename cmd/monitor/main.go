package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"monitor-precos/config"
	"monitor-precos/internal/alerts"
	"monitor-precos/internal/api"
	"monitor-precos/internal/bot"
	"monitor-precos/internal/database"
	"monitor-precos/internal/logger"
	"monitor-precos/internal/monitor"
	"monitor-precos/internal/notify"
	"monitor-precos/internal/scraper"
	"monitor-precos/internal/similar"
)

func main() {
	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Erro ao carregar configurações: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Erro ao criar logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Inicializar banco de dados
	db, err := database.New(cfg.DBDriver, cfg.DBDSN, zlog)
	if err != nil {
		zlog.Fatal("erro ao inicializar banco de dados", zap.Error(err))
	}
	defer db.Close()

	// Telegram é opcional: sem token as notificações vão só para o log
	var sender notify.Sender = notify.NewLogSender(zlog)
	var operatorBot *bot.Bot
	telegramAPI, err := bot.Init(cfg.TelegramBotToken, zlog)
	if err != nil {
		zlog.Warn("telegram desativado", zap.Error(err))
	} else {
		sender = notify.NewTelegramSender(telegramAPI, cfg.TelegramChatID)
	}

	fetcherCfg := scraper.DefaultFetcherConfig()
	fetcherCfg.Timeout = cfg.FetchTimeout
	fetcherCfg.RetryMax = cfg.FetchRetryMax
	fetcher := scraper.NewFetcher(fetcherCfg, zlog.Named("fetcher"))
	registry := scraper.NewRegistry()

	evaluator := alerts.NewEvaluator(db, sender, zlog.Named("alerts"))
	monitorInstance := monitor.New(db, fetcher, registry, evaluator, cfg.Targets, cfg.CheckInterval, zlog.Named("monitor"))
	matcher := similar.New(db, zlog.Named("similar"))

	// Iniciar monitoramento em background
	go monitorInstance.Start(ctx)

	if telegramAPI != nil {
		operatorBot = bot.New(telegramAPI, db, monitorInstance, evaluator, cfg.TelegramChatID, zlog.Named("bot"))
		go bot.Listen(ctx, telegramAPI, operatorBot)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(db, monitorInstance, evaluator, matcher, zlog.Named("api")).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("servidor http iniciado", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("erro no servidor http", zap.Error(err))
			stop()
		}
	}()

	// Aguardar sinal de interrupção
	<-ctx.Done()
	zlog.Info("encerrando monitor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("erro ao encerrar servidor http", zap.Error(err))
	}
}
