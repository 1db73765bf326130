package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/apex/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cardiac-xai/api/internal/app"
	"cardiac-xai/api/internal/config"
	"cardiac-xai/api/internal/logging"
	"cardiac-xai/api/internal/telegram"
)

func main() {
	cfg := config.LoadBot()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	svc, err := app.NewService(cfg)
	if err != nil {
		log.WithError(err).Fatal("build analysis service")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.WithError(err).Fatal("telegram login")
	}
	bot.Debug = false

	r := &telegram.Router{
		Bot:      bot,
		Svc:      svc,
		MaxBytes: cfg.MaxImageBytes,
	}

	// ListenForWebhook registers on DefaultServeMux, so healthz lives there too.
	http.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !svc.Configured() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("provider credential is not configured"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := "0.0.0.0:" + cfg.Port
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(ctx, addr, bot, r, webhookURL)
	} else {
		startPollingMode(ctx, addr, bot, r)
	}
}

func startWebhookMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) {
	path := webhookPath(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.WithError(err).Fatal("webhook config")
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.WithError(err).Fatal("set webhook")
	}

	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			go r.HandleUpdate(ctx, upd)
		}
		log.Info("webhook updates channel closed")
	}()

	srv := &http.Server{Addr: addr}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	log.WithFields(log.Fields{"addr": addr, "path": path}).Info("webhook mode")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("http server")
	}
}

func startPollingMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router) {
	go func() {
		log.Infof("health server listening on %s/healthz", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.WithError(err).Error("health server")
		}
	}()

	runPolling(ctx, bot, func(upd tgbotapi.Update) {
		go r.HandleUpdate(ctx, upd)
	})
}
