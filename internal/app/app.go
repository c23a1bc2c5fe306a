package app

import (
	"context"
	"fmt"
	"log/slog"

	httpapp "portfolio_cms/internal/app/http"
	"portfolio_cms/internal/config"
	"portfolio_cms/internal/realtime"
	"portfolio_cms/internal/repository"
	mediaservice "portfolio_cms/internal/services/media_service"
	portfolioservice "portfolio_cms/internal/services/portfolio_service"
	tokenservice "portfolio_cms/internal/services/token_service"
	userservice "portfolio_cms/internal/services/user_service"
	filestorage "portfolio_cms/internal/storage/filestorage"
	"portfolio_cms/internal/storage/postgresql"
	redisclient "portfolio_cms/internal/storage/redis"
	httprouters "portfolio_cms/internal/transport/http"
)

type App struct {
	log        *slog.Logger
	HTTPServer *httpapp.Server
	Hub        *realtime.Hub

	db    *postgresql.Storage
	redis *redisclient.Client

	hubCancel context.CancelFunc
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	db, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redisclient.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	if err := rdb.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	files, err := filestorage.NewLocalFileStorage(cfg.FileStorage.BaseDir, cfg.FileStorage.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	docRepo := repository.NewDocumentRepo(db.Pool())
	userRepo := repository.NewUserRepo(db.Pool())
	tokenRepo := repository.NewRedisTokenRepo(rdb)

	tokenService := tokenservice.NewTokenService(tokenRepo, cfg.Token.Secret, cfg.Token.AccessTTL, cfg.Token.RefreshTTL)
	userService := userservice.NewUserService(log, userRepo, tokenService, cfg.Admin.Email)
	portfolioService := portfolioservice.NewPortfolioService(log, docRepo, nil)
	mediaService := mediaservice.NewMediaService(log, files, cfg.FileStorage.MaxSize)

	if _, err := userService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hub := realtime.NewHub(log, portfolioService)
	portfolioService.SetNotifier(hub)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	routers := httprouters.NewRouter(log, userService, tokenService, portfolioService, mediaService, hub)

	server := httpapp.New(log, cfg.Token.Secret, cfg.HTTP.SessionKey, cfg.HTTP.Host, cfg.HTTP.Port, cfg.FileStorage.BaseDir, routers)
	server.BuildRouters()

	return &App{
		log:        log,
		HTTPServer: server,
		Hub:        hub,
		db:         db,
		redis:      rdb,
		hubCancel:  hubCancel,
	}, nil
}

func (a *App) Stop() {
	const op = "app.Stop"

	if err := a.HTTPServer.Stop(); err != nil {
		a.log.Error(op, slog.String("http", err.Error()))
	}

	a.hubCancel()

	if err := a.redis.Close(); err != nil {
		a.log.Error(op, slog.String("redis", err.Error()))
	}

	a.db.Stop()
}
