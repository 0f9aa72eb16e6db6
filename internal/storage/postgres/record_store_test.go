package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/compscout/internal/pipeline"
)

func TestInsertWritesRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRecordStore(mock, "comp_records")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := pipeline.CompRecord{
		ID:          "uuid-v7",
		CompanyName: "Acme",
		RoleTitle:   "Backend Engineer",
		SalaryMin:   120000,
		SalaryMax:   160000,
		Currency:    "USD",
		SourceURL:   "https://acme.example/jobs/1",
		ScrapedAt:   now,
	}

	mock.ExpectExec("INSERT INTO comp_records").
		WithArgs(
			rec.ID,
			rec.CompanyName,
			rec.RoleTitle,
			rec.SalaryMin,
			rec.SalaryMax,
			rec.Currency,
			rec.SourceURL,
			rec.ScrapedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Insert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRecordStore(mock, "")
	require.NoError(t, err)

	err = store.Insert(context.Background(), pipeline.CompRecord{})
	require.Error(t, err)
}

func TestListAllScansRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRecordStore(mock, "comp_records")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{
		"id", "company_name", "role_title", "salary_min", "salary_max", "currency", "source_url", "scraped_at",
	}).
		AddRow("1", "Acme", "Engineer", 100000, 140000, "USD", "https://acme.example/jobs/1", now).
		AddRow("2", "Globex", "SRE", 0, 170000, "USD", "https://globex.example/jobs/2", now.Add(time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM comp_records").WillReturnRows(rows)

	got, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Acme", got[0].CompanyName)
	require.Equal(t, 170000, got[1].SalaryMax)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRecordStoreRejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewRecordStore(mock, "records; DROP TABLE")
	require.Error(t, err)
}
