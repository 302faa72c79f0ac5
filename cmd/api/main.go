package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/digkill/AstroImages/internal/api"
	"github.com/digkill/AstroImages/internal/config"
	"github.com/digkill/AstroImages/internal/database"
	"github.com/digkill/AstroImages/internal/imagegen"
	"github.com/digkill/AstroImages/internal/repository/mongorepo"
	"github.com/digkill/AstroImages/internal/repository/mysqlrepo"
	"github.com/digkill/AstroImages/internal/service"
	"github.com/digkill/AstroImages/internal/storage"
	"github.com/digkill/AstroImages/pkg/logger"
)

type userStore interface {
	service.UserStore
	api.Pinger
}

type stores struct {
	users  userStore
	images service.ImageStore
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logr)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.close()

	blobs, err := storage.NewStore(storage.Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.S3PublicBaseURL,
		UsePathStyle:  cfg.S3UsePathStyle,
		Prefix:        cfg.S3Prefix,
	})
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	generator := imagegen.NewClient(cfg, logr)

	imageService := service.NewImageService(st.users, st.images, blobs, generator, logr)
	userService := service.NewUserService(st.users, cfg.InitialCredits, logr)

	server := api.NewServer(api.Options{
		Addr:            cfg.ListenAddr(),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logr, imageService, userService, st.users)

	logr.Info("starting astro images api",
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"provider", cfg.ImageGenProvider,
	)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("api stopped", "err", err)
	}
}

func openStores(ctx context.Context, cfg config.Config, logr *slog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		db, err := database.ConnectMySQL(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &stores{
			users:  mysqlrepo.NewUserRepository(db),
			images: mysqlrepo.NewImageRepository(db),
			close: func() {
				if err := db.Close(); err != nil {
					logr.Error("close mysql", "err", err)
				}
			},
		}, nil
	case config.StoreMongo:
		client, err := database.ConnectMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return &stores{
			users:  mongorepo.NewUserRepository(db),
			images: mongorepo.NewImageRepository(db),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logr.Error("disconnect mongo", "err", err)
				}
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
