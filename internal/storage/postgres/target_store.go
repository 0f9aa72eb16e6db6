package postgres

import (
	"context"
	"fmt"

	"github.com/talentscout/compscout/internal/pipeline"
)

// ErrTargetNotFound is returned when removing an unknown target.
var ErrTargetNotFound = fmt.Errorf("target not found")

// TargetStore keeps target companies in Postgres.
type TargetStore struct {
	pool  pool
	table string
}

// NewTargetStore constructs a store from an existing pool.
func NewTargetStore(p pool, table string) (*TargetStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "target_companies"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &TargetStore{pool: p, table: table}, nil
}

// Add upserts a target company by ID.
func (s *TargetStore) Add(ctx context.Context, target pipeline.TargetCompany) error {
	if target.ID == "" {
		return fmt.Errorf("target id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, name, career_url, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, career_url = EXCLUDED.career_url`, s.table)

	_, err := s.pool.Exec(ctx, query, target.ID, target.Name, target.CareerURL, target.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert target: %w", err)
	}
	return nil
}

// Remove deletes a target by ID.
func (s *TargetStore) Remove(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// ListTargets returns every target, oldest first.
func (s *TargetStore) ListTargets(ctx context.Context) ([]pipeline.TargetCompany, error) {
	query := fmt.Sprintf(`
SELECT id, name, career_url, created_at
FROM %s
ORDER BY created_at ASC`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var targets []pipeline.TargetCompany
	for rows.Next() {
		var t pipeline.TargetCompany
		if err := rows.Scan(&t.ID, &t.Name, &t.CareerURL, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate targets: %w", err)
	}
	return targets, nil
}
