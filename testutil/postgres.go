package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/lolnuked/streamguard/db"
)

// SetupTestDB opens the test database named by TEST_PG_DSN and applies
// migrations. Tests are skipped when the variable is unset.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set; skipping database test")
	}
	d, err := db.Connect(dsn)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	if err := db.Migrate(context.Background(), d); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Logf("close test db: %v", err)
		}
	})
	return d
}
