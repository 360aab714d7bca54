package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesEmptyState(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir)
	require.NoError(t, err)

	hashes, err := os.ReadFile(filepath.Join(dir, StateDir, "model_hashes.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(hashes))

	history, err := os.ReadFile(filepath.Join(dir, StateDir, "migration_history.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"migrations": []}`, string(history))
}

func TestFingerprintRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	hashes, err := s.Fingerprints()
	require.NoError(t, err)
	assert.Empty(t, hashes)

	require.NoError(t, s.SetFingerprint("author", "abc123"))
	require.NoError(t, s.SetFingerprint("book", "def456"))

	hashes, err = s.Fingerprints()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"author": "abc123", "book": "def456"}, hashes)

	// Overwriting one key leaves the other alone.
	require.NoError(t, s.SetFingerprint("author", "abc999"))
	hashes, err = s.Fingerprints()
	require.NoError(t, err)
	assert.Equal(t, "abc999", hashes["author"])
	assert.Equal(t, "def456", hashes["book"])
}

func TestCorruptFingerprintFileTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, StateDir, "model_hashes.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	hashes, err := s.Fingerprints()
	require.NoError(t, err, "corrupt state must not be fatal")
	assert.Empty(t, hashes)
}

func TestCorruptHistoryTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, StateDir, "migration_history.json")
	require.NoError(t, os.WriteFile(path, []byte("][classic"), 0o644))

	records, err := s.History()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppendMigrationIsAppendOnly(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	type op struct {
		Operation string `json:"operation"`
		TableName string `json:"table_name"`
	}
	require.NoError(t, s.AppendMigration("author", []op{{Operation: "create_table", TableName: "author"}}))
	require.NoError(t, s.AppendMigration("book", []op{{Operation: "create_table", TableName: "book"}}))

	records, err := s.History()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "author", records[0].Model)
	assert.Equal(t, "book", records[1].Model)
	assert.False(t, records[0].Timestamp.IsZero())
	assert.True(t, !records[1].Timestamp.Before(records[0].Timestamp))

	var ops []op
	require.NoError(t, json.Unmarshal(records[0].Changes, &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, "create_table", ops[0].Operation)
	assert.Equal(t, "author", ops[0].TableName)
}
