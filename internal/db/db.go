package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yizeng/gab/gin/gorm/chatboard/internal/config"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/repository/dao"
)

var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// Open connects to the configured database, creating the SQLite file and
// its directory if they do not exist yet.
func Open(conf *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dao.ErrStoreConnect, err)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gorm.Open -> %w", dao.ErrStoreConnect, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: gdb.DB -> %w", dao.ErrStoreConnect, err)
	}
	if conf.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	}
	if conf.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	}
	if conf.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(conf.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.QueryTimeout)
	defer cancel()
	if err = Ping(ctx, gdb); err != nil {
		return nil, err
	}

	zap.L().Info("database opened", zap.String("driver", conf.Driver))

	return gdb, nil
}

func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("%w: gdb.DB -> %w", dao.ErrStoreConnect, err)
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: sqlDB.PingContext -> %w", dao.ErrStoreConnect, err)
	}

	return nil
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func dialectorFor(conf *config.DatabaseConfig) (gorm.Dialector, error) {
	switch conf.Driver {
	case config.DriverPostgres:
		return postgres.Open(conf.DSN), nil
	case config.DriverSQLite:
		dsn, err := sqliteDSN(conf.DSN)
		if err != nil {
			return nil, err
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", conf.Driver)
	}
}

// sqliteDSN makes sure the directory holding the database file exists and
// appends the connection pragmas.
func sqliteDSN(dsn string) (string, error) {
	path, query, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")

	if path != ":memory:" && path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("os.MkdirAll -> %w", err)
		}
	}

	var params []string
	for _, p := range sqlitePragmas {
		name, _, _ := strings.Cut(p, "(")
		if !strings.Contains(query, name) {
			params = append(params, "_pragma="+p)
		}
	}
	if len(params) == 0 {
		return dsn, nil
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + strings.Join(params, "&"), nil
}

func newGormLogger() gormlogger.Interface {
	return gormlogger.New(
		zap.NewStdLog(zap.L().Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
}
