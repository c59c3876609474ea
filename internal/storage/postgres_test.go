//go:build integration

package storage

import (
	"testing"

	"github.com/safar/agrocart/internal/database/dbtest"
)

func TestPostgresStorage(t *testing.T) {
	db, cleanup := dbtest.Setup(t, "../../migrations")
	defer cleanup()

	exerciseStorage(t, NewPostgres(db))
}
