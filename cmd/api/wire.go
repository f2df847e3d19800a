package main

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/datingapp/dating-api/internal/core/ports"
	"github.com/datingapp/dating-api/internal/infrastructure/config"
	"github.com/datingapp/dating-api/internal/infrastructure/db/mongo"
	"github.com/datingapp/dating-api/internal/infrastructure/db/postgres"
	"github.com/datingapp/dating-api/internal/infrastructure/db/redis"
	"github.com/datingapp/dating-api/internal/infrastructure/http/handlers"
	"github.com/datingapp/dating-api/internal/infrastructure/storage/miniostore"
	"github.com/datingapp/dating-api/internal/infrastructure/storage/s3store"
)

// infrastructure holds the adapters chosen by configuration.
type infrastructure struct {
	users    ports.UserRepository
	photos   ports.PhotoRepository
	storage  ports.PhotoStorage
	denylist ports.TokenDenylist
	checks   map[string]handlers.Checker

	closers []func()
}

func (i *infrastructure) Close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func connect(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *infrastructure, err error) {
	infra := &infrastructure{checks: map[string]handlers.Checker{}}
	defer func() {
		if err != nil {
			infra.Close()
		}
	}()

	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		infra.closers = append(infra.closers, func() { closeDB(db, log) })
		repo := postgres.NewUserRepository(db)
		infra.users, infra.photos = repo, repo
		infra.checks["postgres"] = repo.Ping
	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: "dating-api"})
		if err != nil {
			return nil, err
		}
		infra.closers = append(infra.closers, func() { disconnectMongo(client, log) })
		repo := mongo.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		infra.users, infra.photos = repo, repo
		infra.checks["mongodb"] = repo.Ping
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("credential store connected")

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return nil, err
	}
	infra.closers = append(infra.closers, func() { closeRedis(rdb, log) })
	deny := redis.NewDenylist(rdb)
	infra.denylist = deny
	infra.checks["redis"] = deny.Ping

	switch cfg.StorageDriver {
	case config.StorageS3:
		store, err := s3store.New(ctx, s3store.Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
			PublicURL: cfg.S3.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		infra.storage = store
		infra.checks["s3"] = store.Ping
	default:
		store, err := miniostore.New(miniostore.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			PublicURL: cfg.Minio.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		infra.storage = store
		infra.checks["minio"] = store.Ping
	}
	log.Info().Str("driver", cfg.StorageDriver).Msg("photo storage configured")

	return infra, nil
}

func closeDB(db *sql.DB, log zerolog.Logger) {
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("close postgres")
	}
}

func disconnectMongo(client *mongodriver.Client, log zerolog.Logger) {
	if err := client.Disconnect(context.Background()); err != nil {
		log.Warn().Err(err).Msg("disconnect mongo")
	}
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("close redis")
	}
}
