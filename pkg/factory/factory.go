package factory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"blogapi/internal/api"
	"blogapi/internal/config"
	"blogapi/internal/database"
	"blogapi/internal/domain"
	"blogapi/internal/repository/memory"
	"blogapi/internal/repository/mongodb"
	"blogapi/internal/repository/sqldb"
	"blogapi/internal/service"
	"blogapi/pkg/logger"
	"blogapi/pkg/redis"
	"blogapi/pkg/token"
)

const denylistCleanupInterval = 10 * time.Minute

type Factory interface {
	GetLogger() logger.Logger
	GetConfig() *config.Config

	GetUserRepository() domain.UserRepository
	GetBlogRepository() domain.BlogRepository
	GetCategoryRepository() domain.CategoryRepository

	GetUserService() domain.UserService
	GetBlogService() domain.BlogService
	GetCategoryService() domain.CategoryService

	GetAuthenticator() *api.Authenticator
	GetHealthChecks() map[string]domain.Pinger

	Close(ctx context.Context) error
}

type AppFactory struct {
	config *config.Config
	logger logger.Logger

	db          *sql.DB
	mongoStore  *mongodb.Store
	redisClient *goredis.Client
	issuer      *token.Issuer
	denylist    token.Denylist
	checks      map[string]domain.Pinger

	userRepository     domain.UserRepository
	blogRepository     domain.BlogRepository
	categoryRepository domain.CategoryRepository

	userService     domain.UserService
	blogService     domain.BlogService
	categoryService domain.CategoryService
	authenticator   *api.Authenticator

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// NewFactory opens the configured store, optional Redis connection and
// token denylist, then wires repositories, services and the authenticator.
func NewFactory(ctx context.Context, cfg *config.Config, log logger.Logger) (Factory, error) {
	f := &AppFactory{
		config: cfg,
		logger: log,
		checks: make(map[string]domain.Pinger),
	}

	if err := f.initStore(ctx); err != nil {
		return nil, err
	}
	if err := f.initRedis(ctx); err != nil {
		_ = f.Close(ctx)
		return nil, err
	}
	f.initTokens()
	f.initServices()

	return f, nil
}

func (f *AppFactory) initStore(ctx context.Context) error {
	cfg := f.config.Database

	switch cfg.Driver {
	case config.DriverMemory:
		users := memory.NewUserRepository()
		f.userRepository = users
		f.blogRepository = memory.NewBlogRepository()
		f.categoryRepository = memory.NewCategoryRepository()
		f.checks["database"] = users

	case config.DriverMongo:
		store, err := mongodb.Connect(ctx, cfg.URI, cfg.Name, f.logger)
		if err != nil {
			return err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return err
		}
		f.mongoStore = store
		f.userRepository = store.Users()
		f.blogRepository = store.Blogs()
		f.categoryRepository = store.Categories()
		f.checks["database"] = store

	case config.DriverPostgres, config.DriverSQLite:
		db, dialect, err := database.Open(ctx, cfg, f.logger)
		if err != nil {
			return err
		}
		if err := database.NewMigrationService(db, dialect, f.logger).RunMigrations(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("run migrations: %w", err)
		}
		f.db = db
		f.userRepository = sqldb.NewUserRepository(db, dialect, f.logger)
		f.blogRepository = sqldb.NewBlogRepository(db, dialect, f.logger)
		f.categoryRepository = sqldb.NewCategoryRepository(db, dialect, f.logger)
		f.checks["database"] = pingFunc(db.PingContext)

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	f.logger.Info("Database initialized", map[string]interface{}{"driver": cfg.Driver})
	return nil
}

func (f *AppFactory) initRedis(ctx context.Context) error {
	if !f.config.Redis.Enabled {
		return nil
	}
	client, err := redis.NewClient(ctx, f.config.Redis)
	if err != nil {
		return err
	}
	f.redisClient = client
	f.checks["redis"] = redis.Pinger{Client: client}
	f.logger.Info("Redis connected", map[string]interface{}{
		"host": f.config.Redis.Host,
		"port": f.config.Redis.Port,
	})
	return nil
}

func (f *AppFactory) initTokens() {
	f.issuer = token.NewIssuer(f.config.Auth.JWTSecret, f.config.Auth.TokenTTL)

	if !f.config.Auth.TokenRevocation {
		return
	}
	if f.redisClient != nil {
		f.denylist = token.NewRedisDenylist(f.redisClient, "blogapi")
		return
	}

	mem := token.NewMemoryDenylist()
	f.denylist = mem
	f.stopCleanup = make(chan struct{})
	go f.cleanupDenylist(mem)
}

func (f *AppFactory) cleanupDenylist(d *token.MemoryDenylist) {
	ticker := time.NewTicker(denylistCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stopCleanup:
			return
		case now := <-ticker.C:
			if removed := d.Cleanup(now); removed > 0 {
				f.logger.Debug("Revoked tokens expired", map[string]interface{}{"removed": removed})
			}
		}
	}
}

func (f *AppFactory) initServices() {
	hasher := service.NewBcryptHasher(service.BcryptCost)
	strict := f.config.Auth.StrictOwnership

	f.userService = service.NewUserService(f.userRepository, hasher, f.issuer, f.denylist, strict, f.logger)
	f.blogService = service.NewBlogService(f.blogRepository, f.userRepository, f.config.EngagementMaxRetries, f.logger)
	f.categoryService = service.NewCategoryService(f.categoryRepository, strict, f.logger)
	f.authenticator = api.NewAuthenticator(f.issuer, f.denylist, f.logger)
}

// Close releases every connection the factory opened. It is safe to call
// more than once.
func (f *AppFactory) Close(ctx context.Context) error {
	var errs []error
	f.closeOnce.Do(func() {
		if f.stopCleanup != nil {
			close(f.stopCleanup)
		}
		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close redis: %w", err))
			}
		}
		if f.mongoStore != nil {
			if err := f.mongoStore.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("close mongo: %w", err))
			}
		}
		if f.db != nil {
			if err := f.db.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	})
	return errors.Join(errs...)
}

func (f *AppFactory) GetLogger() logger.Logger {
	return f.logger
}

func (f *AppFactory) GetConfig() *config.Config {
	return f.config
}

func (f *AppFactory) GetUserRepository() domain.UserRepository {
	return f.userRepository
}

func (f *AppFactory) GetBlogRepository() domain.BlogRepository {
	return f.blogRepository
}

func (f *AppFactory) GetCategoryRepository() domain.CategoryRepository {
	return f.categoryRepository
}

func (f *AppFactory) GetUserService() domain.UserService {
	return f.userService
}

func (f *AppFactory) GetBlogService() domain.BlogService {
	return f.blogService
}

func (f *AppFactory) GetCategoryService() domain.CategoryService {
	return f.categoryService
}

func (f *AppFactory) GetAuthenticator() *api.Authenticator {
	return f.authenticator
}

func (f *AppFactory) GetHealthChecks() map[string]domain.Pinger {
	return f.checks
}
