package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"anoa.com/authorhub/internal/entity"
)

type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Production      bool
}

// Transactor runs fn inside one database transaction. fn's error rolls it back.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Store owns the connection pool. It is opened once at process start,
// handed to repositories and closed at shutdown.
type Store struct {
	db *gorm.DB
}

func Open(opts Options, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(opts.DSN), Config(opts.Production))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	log.Info().
		Int("max_open", opts.MaxOpenConns).
		Int("max_idle", opts.MaxIdleConns).
		Msg("database connected")

	return &Store{db: db}, nil
}

// Config is shared by every dialector so store errors translate the same way
// (gorm.ErrDuplicatedKey on unique violations).
func Config(production bool) *gorm.Config {
	level := logger.Warn
	if production {
		level = logger.Silent
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}
}

// NewStore wraps an already opened connection (used by tests with other dialectors).
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the tables and the partial unique index that keeps at most
// one outstanding (PENDING or APPROVED) request per user and requested role.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(
		&entity.User{},
		&entity.RoleRequest{},
		&entity.Notification{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := s.db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_role_requests_outstanding
		 ON role_requests (user_id, requested_role)
		 WHERE status IN ('PENDING', 'APPROVED')`,
	).Error; err != nil {
		return fmt.Errorf("create outstanding index: %w", err)
	}

	return nil
}
