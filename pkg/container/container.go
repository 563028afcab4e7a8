package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"catalog-backend/internal/config"
	"catalog-backend/internal/domains/catalog/handler"
	"catalog-backend/internal/domains/catalog/repository"
	"catalog-backend/internal/infrastructure/cache"
	"catalog-backend/internal/infrastructure/database"
	"catalog-backend/internal/infrastructure/storage/memory"
	"catalog-backend/internal/infrastructure/storage/postgres"
	"catalog-backend/pkg/logger"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container giữ toàn bộ dependency graph của API.
// Mọi field là singleton trong suốt lifetime của process.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config *config.Config
	Logger zerolog.Logger
	DB     *database.PostgresDB // nil khi STORAGE_DRIVER=memory
	Redis  *cache.RedisClient   // nil khi rate limit tắt hoặc Redis không connect được
	Store  repository.Store

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	AuthorRepo *repository.AuthorRepository
	BookRepo   *repository.BookRepository

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================
	AuthorHandler *handler.AuthorHandler
	BookHandler   *handler.BookHandler
}

// NewContainer load config từ env, init logger rồi build container
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.App.Environment)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return New(ctx, cfg)
}

// New build dependency graph từ config đã load.
//
// Thứ tự initialization:
// 1. Storage (postgres hoặc memory)
// 2. Redis cho rate limit (optional)
// 3. Repositories - phụ thuộc Storage
// 4. Handlers - phụ thuộc Repositories
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger.Component("container"),
	}
	c.Logger.Info().Str("env", cfg.App.Environment).Msg("Initializing DI container")

	// ========================================
	// STEP 1: INITIALIZE STORAGE
	// ========================================
	if err := c.initStorage(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 2: INITIALIZE REDIS (RATE LIMIT)
	// ========================================
	// Redis không critical: connect fail thì tắt rate limit và chạy tiếp
	if cfg.RateLimit.Enabled {
		rc := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
		if err := rc.Connect(ctx); err != nil {
			c.Logger.Warn().Err(err).Msg("Redis connection failed, rate limiting disabled")
			_ = rc.Close()
		} else {
			c.Redis = rc
		}
	}

	// ========================================
	// STEP 3: INITIALIZE REPOSITORIES
	// ========================================
	c.initRepositories()

	// ========================================
	// STEP 4: INITIALIZE HANDLERS
	// ========================================
	c.AuthorHandler = handler.NewAuthorHandler(c.AuthorRepo)
	c.BookHandler = handler.NewBookHandler(c.BookRepo)

	c.Logger.Info().Str("storage", cfg.Catalog.StorageDriver).Msg("DI container initialized")
	return c, nil
}

func (c *Container) initStorage(ctx context.Context) error {
	switch c.Config.Catalog.StorageDriver {
	case config.StorageMemory:
		c.Store = memory.NewStore()
		c.Logger.Warn().Msg("Using in-memory storage, data is lost on restart")
		return nil

	case config.StoragePostgres:
		db := database.NewPostgresDB(c.Config.Database)
		if err := db.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db

		store := postgres.NewStore(db.Pool, c.Logger)
		if c.Config.Catalog.AutoSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("failed to ensure schema: %w", err)
			}
			c.Logger.Info().Msg("Catalog schema ensured")
		}
		c.Store = store
		return nil
	}

	return fmt.Errorf("unknown storage driver %q", c.Config.Catalog.StorageDriver)
}

func (c *Container) initRepositories() {
	policy := repository.ReplaceRequireExisting
	if c.Config.Catalog.ReplaceUpsert {
		policy = repository.ReplaceUpsert
	}

	// ClassifyError chỉ match *pgconn.PgError, memory engine không bị ảnh hưởng
	errs := repository.NewErrorAdapter(logger.Component("repository"), postgres.ClassifyError)

	c.AuthorRepo = repository.NewAuthorRepository(c.Store, errs, policy)
	c.BookRepo = repository.NewBookRepository(c.Store, errs, policy)
}

// ========================================
// HEALTH
// ========================================

// Health - kết quả check cho /health
type Health struct {
	Status   string              `json:"status"`
	Version  string              `json:"version"`
	Storage  string              `json:"storage"`
	Services map[string]string   `json:"services"`
	Pool     *database.PoolStats `json:"pool,omitempty"`
}

// Healthy = storage trả lời được. Redis down chỉ làm status "degraded".
func (c *Container) Health(ctx context.Context) (Health, bool) {
	h := Health{
		Status:   "ok",
		Version:  c.Config.App.Version,
		Storage:  c.Config.Catalog.StorageDriver,
		Services: map[string]string{},
	}
	healthy := true

	if c.DB != nil {
		if err := c.DB.Ping(ctx); err != nil {
			c.Logger.Error().Err(err).Msg("Database health check failed")
			h.Services["database"] = "down"
			h.Status = "down"
			healthy = false
		} else {
			h.Services["database"] = "ok"
			if stats, err := c.DB.Stats(); err == nil {
				h.Pool = stats
			}
		}
	} else {
		h.Services["database"] = "memory"
	}

	if c.Redis != nil {
		if err := c.Redis.HealthCheck(ctx); err != nil {
			h.Services["redis"] = "down"
			if healthy {
				h.Status = "degraded"
			}
		} else {
			h.Services["redis"] = "ok"
		}
	}

	return h, healthy
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn().Err(err).Msg("Failed to close database")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn().Err(err).Msg("Failed to close Redis")
		} else {
			c.Logger.Info().Msg("Redis connections closed")
		}
	}
}
