package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSQLStatements(t *testing.T) {
	content := `-- header comment
CREATE TABLE a (
    id INT
);

-- second
CREATE INDEX idx_a ON a (id);
SELECT 1`

	statements := parseSQLStatements(content)
	require.Len(t, statements, 3)
	assert.Equal(t, "CREATE TABLE a ( id INT )", statements[0])
	assert.Equal(t, "CREATE INDEX idx_a ON a (id)", statements[1])
	assert.Equal(t, "SELECT 1", statements[2])
}

func TestEmbeddedSchemaParses(t *testing.T) {
	statements := parseSQLStatements(schemaSQL)
	require.Len(t, statements, 4)
	assert.Contains(t, statements[0], "CREATE TABLE IF NOT EXISTS ipo_predictions")
	assert.Contains(t, statements[1], "ALTER TABLE ipo_predictions")
}

func TestSchemaLeavesRequestTextUnbounded(t *testing.T) {
	table := parseSQLStatements(schemaSQL)[0]

	for _, column := range []string{"ticker TEXT", "lead_underwriter TEXT", "sector TEXT", "final_price DOUBLE PRECISION"} {
		assert.Contains(t, table, column)
	}
	assert.NotContains(t, table, "ticker VARCHAR")
	assert.NotContains(t, table, "NUMERIC")
}

func TestMigrateWithoutConnection(t *testing.T) {
	assert.Error(t, Migrate(context.Background(), nil))
	assert.Error(t, HealthCheck(context.Background(), nil))
}

func TestConnectAndMigrate(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping database test - TEST_DATABASE_URL not set")
	}

	db, err := Connect(dbURL)
	if err != nil {
		t.Skipf("Skipping database test - database not available: %v", err)
	}
	defer Close(db)

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "migration is re-runnable")
	require.NoError(t, HealthCheck(ctx, db))

	var exists bool
	err = db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'ipo_predictions')").Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)
}
