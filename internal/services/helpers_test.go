package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/isdelr/todo-api-be/internal/auth"
	"github.com/isdelr/todo-api-be/internal/database"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a fresh in-memory database with the full schema applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	// A pooled second connection would see a different in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestCodec() *auth.TokenCodec {
	return auth.NewTokenCodec([]byte("test-secret"), time.Hour)
}
