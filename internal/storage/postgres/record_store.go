// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentscout/compscout/internal/pipeline"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	RecordTable     string
	TargetTable     string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// NewPool builds a pgx pool from the config. Callers share one pool between
// the record and target stores.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return p, nil
}

// RecordStore writes compensation records into Postgres.
type RecordStore struct {
	pool  pool
	table string
}

// NewRecordStore constructs a store from an existing pool. The pool
// parameter is an interface so tests can substitute pgxmock.
func NewRecordStore(p pool, table string) (*RecordStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "comp_records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &RecordStore{pool: p, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Insert appends one compensation record.
func (s *RecordStore) Insert(ctx context.Context, record pipeline.CompRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	company_name,
	role_title,
	salary_min,
	salary_max,
	currency,
	source_url,
	scraped_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`, s.table)

	_, err := s.pool.Exec(ctx, query,
		record.ID,
		record.CompanyName,
		record.RoleTitle,
		record.SalaryMin,
		record.SalaryMax,
		record.Currency,
		record.SourceURL,
		record.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comp record: %w", err)
	}
	return nil
}

// ListAll returns every stored record, oldest first.
func (s *RecordStore) ListAll(ctx context.Context) ([]pipeline.CompRecord, error) {
	query := fmt.Sprintf(`
SELECT id, company_name, role_title, salary_min, salary_max, currency, source_url, scraped_at
FROM %s
ORDER BY scraped_at ASC`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list comp records: %w", err)
	}
	defer rows.Close()

	var records []pipeline.CompRecord
	for rows.Next() {
		var r pipeline.CompRecord
		if err := rows.Scan(
			&r.ID,
			&r.CompanyName,
			&r.RoleTitle,
			&r.SalaryMin,
			&r.SalaryMax,
			&r.Currency,
			&r.SourceURL,
			&r.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("scan comp record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comp records: %w", err)
	}
	return records, nil
}
