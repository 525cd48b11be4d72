package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-roteiro-planner/app/db"
	"github.com/FACorreiaa/go-roteiro-planner/config"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/draft"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/geolocation"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/recommender"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/schedule"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/selection"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/session"
	"github.com/FACorreiaa/go-roteiro-planner/internal/client/roteiro"
	"github.com/FACorreiaa/go-roteiro-planner/internal/store"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	KV     store.KV

	SessionHandler     *session.HandlerImpl
	DraftHandler       *draft.HandlerImpl
	SelectionHandler   *selection.HandlerImpl
	RecommenderHandler *recommender.HandlerImpl
	ScheduleHandler    *schedule.HandlerImpl
}

// NewContainer opens the configured storage backend and wires every service.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	kv, err := c.openStore(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.KV = kv

	client := roteiro.NewHTTPClient(roteiro.Options{
		BaseURL:           cfg.Remote.BaseURL,
		Timeout:           cfg.Remote.Timeout,
		RequestsPerSecond: cfg.Remote.RequestsPerSecond,
		Burst:             cfg.Remote.Burst,
	}, logger)
	locator := geolocation.NewRequestLocator(logger)

	draftService := draft.NewServiceImpl(draft.NewKVStore(kv, logger), draft.NewMonotonicIDs(time.Now().UnixMilli()), logger)
	selectionService := selection.NewServiceImpl(draftService, selection.Routes{
		Editor:      cfg.Routes.Editor,
		Recommender: cfg.Routes.Recommender,
	}, logger)
	recommenderService := recommender.NewServiceImpl(client, kv, cfg.Cache.CandidatesTTL, logger)
	scheduleService := schedule.NewServiceImpl(client, draftService, recommenderService, logger)
	sessionService := session.NewServiceImpl(client, cfg.JWT, logger)

	c.SessionHandler = session.NewHandler(sessionService, logger)
	c.DraftHandler = draft.NewHandler(draftService, logger)
	c.SelectionHandler = selection.NewHandler(selectionService, logger)
	c.RecommenderHandler = recommender.NewHandler(recommenderService, locator, logger)
	c.ScheduleHandler = schedule.NewHandler(scheduleService, locator, logger)

	logger.Info("Container initialized", slog.String("storage", cfg.Storage.Backend))
	return c, nil
}

func (c *Container) openStore(ctx context.Context) (store.KV, error) {
	switch c.Config.Storage.Backend {
	case "postgres":
		dbConfig, err := database.NewDatabaseConfig(c.Config, c.Logger)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(dbConfig.ConnectionURL, c.Logger); err != nil {
			return nil, err
		}
		wait := time.Duration(c.Config.Repositories.Postgres.MAXCONWAITINGTIME) * time.Second
		pool, err := database.Init(ctx, dbConfig.ConnectionURL, wait, c.Logger)
		if err != nil {
			return nil, err
		}
		c.Pool = pool
		if !database.WaitForDB(ctx, pool, c.Logger) {
			return nil, fmt.Errorf("database not ready")
		}
		return store.NewPostgresKV(pool, c.Logger), nil

	case "redis":
		r := c.Config.Repositories.Redis
		client, err := store.NewRedisClient(ctx, r.Addr, r.Password, r.DB)
		if err != nil {
			c.Logger.Error("Failed to connect to redis", slog.Any("error", err))
			return nil, err
		}
		c.Redis = client
		return store.NewRedisKV(client, "roteiro:", c.Logger), nil

	default:
		return store.NewMemoryKV(), nil
	}
}

// Close releases the storage backend.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
		c.Logger.Info("Database pool closed")
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis client", slog.Any("error", err))
		}
	}
}
