package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/apex/log"

	"cardiac-xai/api/internal/app"
	"cardiac-xai/api/internal/config"
	"cardiac-xai/api/internal/handle"
	"cardiac-xai/api/internal/httpserver"
	"cardiac-xai/api/internal/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	svc, err := app.NewService(cfg)
	if err != nil {
		log.WithError(err).Fatal("build analysis service")
	}

	engine := httpserver.Build(httpserver.Options{
		Handle:         handle.New(svc),
		StaticDir:      cfg.StaticDir,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxImageBytes,
		Debug:          strings.EqualFold(cfg.LogLevel, "debug"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		// the upstream bound plus time to receive the upload and write the echo
		WriteTimeout: cfg.UpstreamTimeout + time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("cardiac-xai listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.UpstreamTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown")
	}
}
