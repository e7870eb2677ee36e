package testutil_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teeck111/bmc/migrations"
	"github.com/teeck111/bmc/testutil"
)

func TestMigrations_UpAndReset(t *testing.T) {
	db := testutil.NewSQLDB(t)
	ctx := context.Background()

	// The repo package may have migrated this database already.
	require.NoError(t, migrations.Reset(ctx, db))
	t.Cleanup(func() { _, _ = migrations.Up(ctx, db) })

	applied, err := migrations.Up(ctx, db)
	require.NoError(t, err)
	assert.Positive(t, applied)

	assert.ElementsMatch(t, []string{
		"id", "location", "trip_date", "duration", "distance", "elevation",
		"members", "description", "photos", "date_added", "date_modified",
	}, tripColumns(t, db))

	again, err := migrations.Up(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, again, "second run applies nothing")

	require.NoError(t, migrations.Reset(ctx, db))
	assert.Empty(t, tripColumns(t, db))
}

func tripColumns(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.QueryContext(context.Background(), `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = 'trips'`)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		require.NoError(t, rows.Scan(&c))
		cols = append(cols, c)
	}
	require.NoError(t, rows.Err())
	return cols
}
