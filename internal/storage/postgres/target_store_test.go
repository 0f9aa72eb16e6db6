package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/compscout/internal/pipeline"
)

func TestTargetAddUpserts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewTargetStore(mock, "target_companies")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	target := pipeline.TargetCompany{
		ID:        "uuid-v7",
		Name:      "Acme",
		CareerURL: "https://acme.example/careers",
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO target_companies").
		WithArgs(target.ID, target.Name, target.CareerURL, target.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Add(context.Background(), target))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTargetRemoveNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewTargetStore(mock, "target_companies")
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM target_companies").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = store.Remove(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTargetNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTargetListScansRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewTargetStore(mock, "target_companies")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{"id", "name", "career_url", "created_at"}).
		AddRow("1", "Acme", "https://acme.example/careers", now)

	mock.ExpectQuery("SELECT (.+) FROM target_companies").WillReturnRows(rows)

	got, err := store.ListTargets(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Acme", got[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
