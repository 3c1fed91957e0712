package db

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/streeteats-connect/pkg/config"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
)

type Client struct {
	conn *gorm.DB
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens the configured driver. Postgres goes through pgx with the
// simple protocol so it also works behind pgbouncer.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = config.DriverPostgres
	}

	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		dialector = sqlite.Open(sqliteDSN(cfg.SQLitePath))
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN is required")
		}
		dialector = postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, gormConfig(logg, cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	if driver == config.DriverSQLite {
		// one writer at a time, or SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "driver", driver), "database connected")
	}
	return &Client{conn: conn}, nil
}

// OpenSQLite opens a file (or ":memory:") on a single connection for local
// stores and tests. Queries are not logged.
func OpenSQLite(path string) (*Client, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	conn, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig(nil, config.DBConfig{}))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return &Client{conn: conn}, nil
}

func Wrap(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

func sqliteDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// TranslateError turns driver duplicate-key errors into gorm.ErrDuplicatedKey.
func gormConfig(logg *logger.Logger, cfg config.DBConfig) *gorm.Config {
	return &gorm.Config{
		Logger:                 newQueryLogger(logg, cfg.SlowQuery),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx commits when fn returns nil and rolls back on error or panic.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}
