package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"pkg.mon.icu/social/internal/api"
	"pkg.mon.icu/social/internal/auth"
	"pkg.mon.icu/social/internal/config"
	"pkg.mon.icu/social/internal/media"
	"pkg.mon.icu/social/internal/service"
	"pkg.mon.icu/social/internal/storage"
	"pkg.mon.icu/social/internal/storage/memory"
)

// bodySlack leaves room for multipart framing and form fields around the largest upload.
const bodySlack = 1 << 20

type app struct {
	ctx    context.Context
	cancel context.CancelFunc

	logConf zap.Config
	logger  *zap.Logger

	config *config.Config

	pgStorage *storage.Storage
	store     storage.Transactor
	media     *media.Store
	service   *service.Service
	api       *api.API
}

func newApp(ctx context.Context, lcf zap.Config, log *zap.Logger) (*app, error) {
	ctx, cancel := context.WithCancel(ctx)
	a := &app{ctx: ctx, cancel: cancel, logConf: lcf, logger: log}
	var err error

	log.Debug("Loading configuration.")
	a.config, err = config.Read()
	if err != nil {
		return nil, fmt.Errorf("couldn't load configuration: %w", err)
	}

	log.Debug("Successfully loaded configuration (also switching log level.)")
	lcf.Level.SetLevel(a.config.Logging.Level)

	log.Debug("Initializing token issuer.")
	tokens, err := auth.NewTokens(a.config.Auth.Secret, a.config.Auth.Algorithm, a.config.Auth.TokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize token issuer: %w", err)
	}

	switch a.config.Storage.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory storage, nothing will survive a restart.")
		a.store = memory.NewStorage()
	default:
		log.Debug("Initializing Storage struct.")
		a.pgStorage = storage.NewStorage(ctx, log)
		a.store = a.pgStorage
	}

	mc := a.config.Media
	a.media = media.NewStore(mc.Root, mc.UrlPrefix, log)
	a.service = service.New(a.store, a.media, tokens, log, service.Limits{MaxImageSize: mc.MaxImageSize, MaxVideoSize: mc.MaxVideoSize})

	ac := a.config.Api
	a.api = api.NewAPI(ctx, log, a.service, a.media, api.NewConfig(ac.Port, ac.CorsOrigins, ac.RateLimit, ac.RateBurst, mc.MaxVideoSize+mc.MaxImageSize+bodySlack))

	return a, nil
}

func (a *app) Run() error {
	if a.pgStorage != nil {
		a.logger.Debug("Connecting to PostgreSQL storage.")
		if err := a.pgStorage.Connect(a.config.PostgresDSN()); err != nil {
			return fmt.Errorf("couldn't connect to storage: %s", err)
		}
		a.logger.Debug("Successfully connected to PostgreSQL storage.")

		a.logger.Debug("Migrating PostgreSQL schema.")
		if err := a.pgStorage.Migrate(a.ctx); err != nil {
			_ = a.pgStorage.Close()
			return fmt.Errorf("couldn't migrate storage: %s", err)
		}
	}
	defer func() {
		a.logger.Debug("Closing storage.")
		if err := a.store.Close(); err != nil {
			a.logger.Sugar().Errorf("Couldn't close storage: %s.", err)
		}
		a.logger.Debug("Closed storage.")
	}()

	a.logger.Sugar().Debugf("Serving media from %s at %s.", a.media.Root(), a.media.URLPrefix())
	a.logger.Sugar().Debugf("Starting API server on port %d.", a.config.Api.Port)
	a.api.Listen()
	defer func() {
		a.logger.Debug("Shutting down API server.")
		if err := a.api.Close(); err != nil {
			a.logger.Sugar().Errorf("Couldn't close API server: %s.", err)
		}
		a.logger.Debug("Shut down API server.")
	}()

	a.logger.Info("Launch complete. Send SIGINT to gracefully terminate.")
	<-a.ctx.Done()
	a.logger.Info("SIGINT received, terminating.")

	return a.ctx.Err()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	lcf := zap.NewDevelopmentConfig() // to later switch level without reallocation
	lcf.Level.SetLevel(zapcore.DebugLevel)
	lcf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	lcf.DisableCaller = true
	log, _ := lcf.Build()

	log.Info("Initializing application.")
	a, err := newApp(ctx, lcf, log)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Sugar().Fatalf("Couldn't initialize application: %s.", err)
		}

		return
	}
	defer a.cancel()

	log.Debug("Initialization tasks complete, continuing with launch.")
	if err := a.Run(); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Sugar().Fatalf("Application crashed: %s.", err)
		}
	}
}
