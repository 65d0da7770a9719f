package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/fault"
)

type ClickHouseStorageConfig struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// ClickHouseStorage stores saved filters in ClickHouse.
type ClickHouseStorage struct {
	conn driver.Conn
	cfg  ClickHouseStorageConfig
}

var errNotConnected = errors.New("clickhouse storage is not connected")

func NewClickHouseStorage(cfg ClickHouseStorageConfig) (*ClickHouseStorage, error) {
	if len(cfg.Addr) == 0 {
		return nil, errors.New("clickhouse address is required")
	}

	return &ClickHouseStorage{cfg: cfg}, nil
}

func setupClickHouseTables(ctx context.Context, conn driver.Conn) error {
	return conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS saved_filters (
			id UUID,
			collection String,
			expression String,
			created_at DateTime64(3)
		)
		ENGINE = MergeTree
		ORDER BY (collection, created_at, id)
	`)
}

func (s *ClickHouseStorage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: s.cfg.Addr,
		Auth: clickhouse.Auth{
			Database: s.cfg.Database,
			Username: s.cfg.Username,
			Password: s.cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.conn = conn

	// A single table does not need a migration tool.
	if err := setupClickHouseTables(ctx, conn); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

func (s *ClickHouseStorage) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *ClickHouseStorage) Save(ctx context.Context, f entity.SavedFilter) error {
	if s.conn == nil {
		return errNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO saved_filters (id, collection, expression, created_at)")
	if err != nil {
		return fmt.Errorf("couldn't prepare batch: %w", err)
	}

	if err := batch.Append(f.ID, f.Collection, f.Expression, f.CreatedAt); err != nil {
		return fmt.Errorf("couldn't append filter to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("couldn't send batch: %w", err)
	}

	return nil
}

func (s *ClickHouseStorage) Get(ctx context.Context, id uuid.UUID) (entity.SavedFilter, error) {
	if s.conn == nil {
		return entity.SavedFilter{}, errNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var f entity.SavedFilter
	err := s.conn.QueryRow(ctx, `
		SELECT id, collection, expression, created_at
		FROM saved_filters
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&f.ID, &f.Collection, &f.Expression, &f.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return entity.SavedFilter{}, fault.New(fault.NotFoundCode, "saved filter not found").WithOriginal(err)
	}
	if err != nil {
		return entity.SavedFilter{}, fmt.Errorf("couldn't query saved filter: %w", err)
	}

	return f, nil
}

// List returns the newest saved filters of a collection first.
func (s *ClickHouseStorage) List(ctx context.Context, collection string, limit int) ([]entity.SavedFilter, error) {
	if s.conn == nil {
		return nil, errNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.conn.Query(ctx, `
		SELECT id, collection, expression, created_at
		FROM saved_filters
		WHERE collection = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("couldn't query saved filters: %w", err)
	}
	defer rows.Close()

	var res []entity.SavedFilter
	for rows.Next() {
		var f entity.SavedFilter
		if err := rows.Scan(&f.ID, &f.Collection, &f.Expression, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("couldn't scan saved filter: %w", err)
		}
		res = append(res, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("couldn't read saved filters: %w", err)
	}

	return res, nil
}
