// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/stickit/internal/store"
	"github.com/starford/stickit/internal/vault"
)

// TestDB creates a temporary SQLite note store that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "stickit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a vault.Provider.
func TestVault(t *testing.T) (string, *vault.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	v, err := vault.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, v
}
