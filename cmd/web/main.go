package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"kyc-backend/internal/shared/config"
	"kyc-backend/internal/shared/server"
	"kyc-backend/internal/shared/telemetry"
	"kyc-backend/internal/webui"
)

func main() {
	cfg, err := config.LoadWeb()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	telemetry.SetLevel(cfg.LogLevel)

	router, err := webui.NewRouter(webui.Options{
		StaticDir:  cfg.StaticDir,
		APIBaseURL: cfg.APIBaseURL,
	})
	if err != nil {
		log.Fatalf("webui error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		telemetry.Info("web.listening", map[string]any{"addr": srv.Addr, "api_proxy": cfg.APIBaseURL})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("web.shutdown_failed", map[string]any{"error": err.Error()})
	}
}
