package reliability

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"database/sql"

	internaltesting "github.com/asteway/birrfolio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestSnapshot(t *testing.T) {
	db, cleanup := internaltesting.NewTestDB(t, "exchange")
	defer cleanup()

	_, err := db.Conn().Exec(
		"INSERT INTO users (id, email, password_hash, name) VALUES (?, ?, ?, ?)",
		"user-1", "user1@example.com", "x", "Test User",
	)
	require.NoError(t, err)

	service := NewBackupService(db, zerolog.Nop())
	dest := filepath.Join(t.TempDir(), "snapshot.db")

	require.NoError(t, service.Snapshot(dest))

	// Snapshot is a standalone database with the data in it
	snap, err := sql.Open("sqlite", dest)
	require.NoError(t, err)
	defer snap.Close()

	var count int
	require.NoError(t, snap.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSnapshotOverwrites(t *testing.T) {
	db, cleanup := internaltesting.NewTestDB(t, "exchange")
	defer cleanup()

	service := NewBackupService(db, zerolog.Nop())
	dest := filepath.Join(t.TempDir(), "snapshot.db")

	require.NoError(t, service.Snapshot(dest))
	require.NoError(t, service.Snapshot(dest))
}

func TestChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	sum, err := Checksum(path)
	require.NoError(t, err)
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)

	again, err := Checksum(path)
	require.NoError(t, err)
	assert.Equal(t, sum, again)
}

func TestCreateArchive(t *testing.T) {
	dir := t.TempDir()

	first := filepath.Join(dir, "exchange.db")
	second := filepath.Join(dir, "backup-metadata.json")
	require.NoError(t, os.WriteFile(first, []byte("database bytes"), 0644))
	require.NoError(t, os.WriteFile(second, []byte(`{"ok":true}`), 0644))

	archivePath := filepath.Join(dir, "backup.tar.gz")
	require.NoError(t, createArchive(archivePath, []string{first, second}))

	// Round-trip the archive and verify both entries
	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	contents := map[string]string{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		contents[header.Name] = string(data)
	}

	assert.Equal(t, "database bytes", contents["exchange.db"])
	assert.Equal(t, `{"ok":true}`, contents["backup-metadata.json"])
}
