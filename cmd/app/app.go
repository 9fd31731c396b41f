package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/chatboard/internal/api"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/config"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/db"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/logger"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/page"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/pkg/mailer"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/repository/dao"
)

const defaultConfigPath = "./cmd/app/config.yml"

func Start() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment, conf.Log); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	// Only the log level is applied live; everything else needs a restart.
	config.Watch(configPath, func(c *config.AppConfig) {
		if err := logger.SetLevel(c.Log.Level); err != nil {
			zap.L().Warn("log level not changed", zap.Error(err))
			return
		}
		zap.L().Info("log level changed", zap.Stringer("level", logger.Level()))
	}, func(err error) {
		zap.L().Warn("config reload rejected", zap.Error(err))
	})

	if !conf.Page.Disabled {
		if err = page.Write(conf.Page.Path); err != nil {
			return fmt.Errorf("failed to write page -> %w", err)
		}
	}

	gdb, err := db.Open(conf.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			zap.L().Warn("database not closed cleanly", zap.Error(err))
		}
	}()

	if err = dao.InitTables(gdb); err != nil {
		return fmt.Errorf("failed to initialize tables -> %w", err)
	}

	s := api.NewServer(conf, gdb, mailer.New(conf.SMTP))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = s.Run(ctx); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	zap.L().Info("server stopped")

	return nil
}
