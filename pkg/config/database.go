package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connections. Mongo and Redis are nil when not configured.
type DB struct {
	SQL   *gorm.DB
	Mongo *mongo.Client
	Redis *redis.Client
}

// zapWriter adapts zap.Logger to the gorm logger.Writer interface
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Printf(format string, args ...interface{}) {
	w.logger.Sugar().Infof(format, args...)
}

// InitDB opens every configured store, retrying each connection with exponential backoff
func InitDB(cfg *Config, log *zap.Logger) (*DB, error) {
	db := &DB{}

	err := retry(cfg.Database.MaxRetries, log, "sql", func() error {
		var err error
		db.SQL, err = OpenSQL(cfg.Database.URL, gormLogLevel(cfg.Logging.Level), log)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQL database: %w", err)
	}

	if cfg.Database.MongoURI != "" {
		err = retry(cfg.Database.MaxRetries, log, "mongo", func() error {
			var err error
			db.Mongo, err = initMongo(cfg.Database.MongoURI)
			return err
		})
		if err != nil {
			db.CloseDB(log)
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
	}

	if cfg.Redis.Enabled {
		err = retry(cfg.Database.MaxRetries, log, "redis", func() error {
			var err error
			db.Redis, err = initRedis(cfg.Redis.URL)
			return err
		})
		if err != nil {
			db.CloseDB(log)
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	return db, nil
}

func retry(maxRetries int, log *zap.Logger, store string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Minute
	return backoff.RetryNotify(op, backoff.WithMaxRetries(b, uint64(maxRetries)), func(err error, next time.Duration) {
		log.Warn("Connection attempt failed, retrying",
			zap.String("store", store),
			zap.Duration("next_attempt", next),
			zap.Error(err))
	})
}

// OpenSQL opens a gorm connection for a postgres:// or sqlite:// URL
func OpenSQL(url string, level logger.LogLevel, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		dialector = postgres.Open(url)
	case strings.HasPrefix(url, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(url, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported database url %q", url)
	}

	gormLogger := logger.New(&zapWriter{logger: log}, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("Connected to SQL database", zap.String("dialect", dialector.Name()))
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "info":
		return logger.Warn
	case "warn", "warning":
		return logger.Error
	case "error":
		return logger.Silent
	default:
		return logger.Warn
	}
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func initRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to parse Redis URL: %w", err))
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB(log *zap.Logger) {
	if db.SQL != nil {
		if sqlDB, err := db.SQL.DB(); err != nil {
			log.Error("Error getting SQL DB from GORM", zap.Error(err))
		} else if err := sqlDB.Close(); err != nil {
			log.Error("Error closing SQL connection", zap.Error(err))
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			log.Error("Error closing MongoDB connection", zap.Error(err))
		}
	}

	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			log.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}
