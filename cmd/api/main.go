// Command api serves the dating app HTTP API.
//
// @title                       Dating API
// @version                     1.0
// @description                 Registration, login and photo upload for the dating app.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datingapp/dating-api/internal/api"
	"github.com/datingapp/dating-api/internal/core/service"
	"github.com/datingapp/dating-api/internal/infrastructure/config"
	"github.com/datingapp/dating-api/internal/infrastructure/token"
	"github.com/datingapp/dating-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not configured yet.
		bootLog := logger.Init(logger.Options{Service: "dating-api"})
		bootLog.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "dating-api",
	})

	infra, err := connect(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect dependencies")
	}
	defer infra.Close()

	tokens, err := token.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	e := api.NewRouter(api.Dependencies{
		Auth:           service.NewAuthService(infra.users, tokens, infra.denylist, log),
		Users:          service.NewUserService(infra.users),
		Photos:         service.NewPhotoService(infra.photos, infra.storage, cfg.MaxUploadBytes, log),
		Verifier:       tokens,
		Denylist:       infra.denylist,
		Health:         infra.checks,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Str("storage", cfg.StorageDriver).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
