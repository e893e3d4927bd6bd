//go:build integration

package importer

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nonsonwune/tu_results/migrations"
	"github.com/nonsonwune/tu_results/models"
)

func TestImportPostgres(t *testing.T) {
	ctx := context.Background()
	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tu_results_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sql.Open(migrations.Postgres, dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, migrations.InitSchema(db, migrations.Postgres))

	imp, err := New(db, Config{Driver: migrations.Postgres, BatchSize: 2, FailedDir: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)

	records := []models.MarksheetRecord{
		record("101", "RAM", "P", subject("PHY 101", models.Float(60)), subject("CHM 101", nil)),
		record("102", "SITA", "F", subject("PHY 101", models.Float(20))),
		record("bad", "X", "P"),
	}
	stats, err := imp.Import(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Imported)
	assert.Equal(t, 1, stats.Skipped)

	_, err = imp.Import(ctx, []models.MarksheetRecord{record("102", "SITA K", "P")})
	require.NoError(t, err)

	loaded, err := LoadRecords(ctx, db, migrations.Postgres)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, records[0], loaded[0])
	assert.Equal(t, "SITA K", *loaded[1].Name)
	assert.Empty(t, loaded[1].Subjects)
}
