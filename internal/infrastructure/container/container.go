package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/infrastructure/config"
	"cryptowidget/internal/infrastructure/storage/composite"
	"cryptowidget/internal/infrastructure/storage/jsonfile"
	pgrepo "cryptowidget/internal/infrastructure/storage/postgres"
	redisrepo "cryptowidget/internal/infrastructure/storage/redis"
	sqliterepo "cryptowidget/internal/infrastructure/storage/sqlite"
)

// Container 持有设置存储和行情导出等基础设施依赖
type Container struct {
	cfg         *config.Config
	redisClient *redis.Client
	settings    port.SettingsRepository
	publishers  []port.TickPublisher
	closeOnce   sync.Once
	closerChain []func() error
}

// New 按配置创建容器；失败时释放已初始化的资源
func New(cfg *config.Config) (*Container, error) {
	c := &Container{
		cfg:         cfg,
		closerChain: make([]func() error, 0),
	}

	if err := c.initSettings(); err != nil {
		_ = c.Close()
		return nil, err
	}

	// Redis 只用于导出行情，不可用时降级
	if cfg.Redis.Enabled {
		if err := c.initRedis(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, tick export disabled")
		}
	}

	return c, nil
}

// initSettings 根据 settings.backend 选择设置存储
func (c *Container) initSettings() error {
	s := c.cfg.Settings
	switch s.Backend {
	case config.BackendFile:
		c.settings = jsonfile.New(s.Path)

	case config.BackendSQLite:
		repo, err := c.initSQLite()
		if err != nil {
			return err
		}
		c.settings = repo

	case config.BackendFileSQLite:
		repo, err := c.initSQLite()
		if err != nil {
			return err
		}
		c.settings = composite.NewSettings(jsonfile.New(s.Path), repo)

	case config.BackendPostgres:
		repo, err := pgrepo.New(s.PostgresDSN, s.Profile)
		if err != nil {
			return fmt.Errorf("postgres init failed: %w", err)
		}
		c.settings = repo
		c.closerChain = append(c.closerChain, func() error {
			log.Info().Msg("closing postgres connection")
			return repo.Close()
		})
		log.Info().Str("profile", s.Profile).Msg("postgres settings initialized")

	default:
		return fmt.Errorf("settings backend %q not supported", s.Backend)
	}

	log.Info().Str("backend", s.Backend).Msg("settings store ready")
	return nil
}

// initSQLite 打开 SQLite，同时把它注册为最新行情的落地端
func (c *Container) initSQLite() (*sqliterepo.Repo, error) {
	repo, err := sqliterepo.New(c.cfg.Settings.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite init failed: %w", err)
	}

	c.publishers = append(c.publishers, repo)
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().
		Str("path", c.cfg.Settings.SQLitePath).
		Msg("sqlite initialized")
	return repo, nil
}

// initRedis 初始化 Redis 连接
func (c *Container) initRedis() error {
	rc := c.cfg.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	c.redisClient = rdb
	ttl := time.Duration(rc.TTLSeconds) * time.Second
	c.publishers = append(c.publishers, redisrepo.New(rdb, rc.Prefix, ttl, rc.Channel))

	// 注册关闭回调
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", rc.Addr).
		Int("db", rc.DB).
		Msg("redis initialized")

	return nil
}

// Config 获取配置
func (c *Container) Config() *config.Config {
	return c.cfg
}

// RedisClient 获取 Redis 客户端，未启用时为 nil
func (c *Container) RedisClient() *redis.Client {
	return c.redisClient
}

// Settings 获取设置存储
func (c *Container) Settings() port.SettingsRepository {
	return c.settings
}

// Publisher 把行情扇出到所有已启用的导出端；没有时等同于空操作
func (c *Container) Publisher() port.TickPublisher {
	return composite.NewPublisher(c.publishers...)
}

// Close 关闭所有资源（按后进先出顺序）
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
		log.Info().Msg("container closed")
	})
	return err
}
