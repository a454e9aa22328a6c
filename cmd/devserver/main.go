package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"elearning_go/internal/config"
	"elearning_go/internal/httpserver"
	"elearning_go/internal/observability"
	"elearning_go/internal/security"
	"elearning_go/internal/service"
	"elearning_go/internal/store"
	"elearning_go/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := observability.New(os.Stderr, "info", false)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := observability.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("dev backend stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	repos, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	defer repos.Close()

	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	passwordHasher := security.NewPasswordHasher(0)
	encryptor, err := security.NewEncryptor([]byte(cfg.EncryptKey), cfg.LegacyFernetKeys)
	if err != nil {
		return fmt.Errorf("initialize encryptor: %w", err)
	}

	authSvc := service.NewAuthService(repos.Users, tokenSvc, passwordHasher)
	chatSvc := service.NewChatService(repos.Conversations, repos.Participants, repos.Messages, repos.Users, encryptor, cfg.MaxMessagesPerConversation, log)
	dirSvc := service.NewDirectoryService(repos.Users, repos.Courses, cfg.SearchLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SeedSampleData {
		if err := service.Seed(ctx, authSvc, repos.Users, repos.Courses, chatSvc, log); err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Config:    cfg,
		Auth:      authSvc,
		Directory: dirSvc,
		Chat:      chatSvc,
		Hub:       ws.NewHub(),
		Presence:  repos.Users,
		Log:       log,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr()).Str("driver", cfg.DBDriver).Msg("starting dev backend")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
