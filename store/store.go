package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	// StateDir is the hidden directory holding migration state, created
	// next to wherever the host runs from.
	StateDir = ".easymodel"

	hashesFile  = "model_hashes.json"
	historyFile = "migration_history.json"
)

// Store persists the per-entity fingerprint map and the append-only
// migration history as two JSON files under the state directory.
type Store struct {
	hashesPath  string
	historyPath string
}

// Record is one applied migration in the history log.
type Record struct {
	Timestamp time.Time       `json:"timestamp"`
	Model     string          `json:"model"`
	Changes   json.RawMessage `json:"changes"`
}

type historyFileFormat struct {
	Migrations []Record `json:"migrations"`
}

// Open prepares the store under baseDir (the current directory if empty),
// creating the state directory and empty state files on first use.
func Open(baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = "."
	}
	dir := filepath.Join(baseDir, StateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	s := &Store{
		hashesPath:  filepath.Join(dir, hashesFile),
		historyPath: filepath.Join(dir, historyFile),
	}
	if err := ensureFile(s.hashesPath, []byte("{}")); err != nil {
		return nil, err
	}
	if err := ensureFile(s.historyPath, []byte(`{"migrations": []}`)); err != nil {
		return nil, err
	}
	return s, nil
}

func ensureFile(path string, initial []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := os.WriteFile(path, initial, 0o644); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// Fingerprints loads the stored entity-name to fingerprint map. A missing
// or corrupt file is treated as empty state with a warning, never fatal.
func (s *Store) Fingerprints() (map[string]string, error) {
	data, err := os.ReadFile(s.hashesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.hashesPath, err)
	}

	hashes := map[string]string{}
	if err := json.Unmarshal(data, &hashes); err != nil {
		log.Printf("easymodel: invalid JSON in %s, starting with empty fingerprints", s.hashesPath)
		return map[string]string{}, nil
	}
	return hashes, nil
}

// SetFingerprint records the fingerprint for one entity, read-modify-write.
func (s *Store) SetFingerprint(name, hash string) error {
	hashes, err := s.Fingerprints()
	if err != nil {
		return err
	}
	hashes[name] = hash

	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding fingerprints: %w", err)
	}
	if err := os.WriteFile(s.hashesPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.hashesPath, err)
	}
	return nil
}

// History returns all recorded migrations, oldest first. Corrupt history
// is treated as empty with a warning.
func (s *Store) History() ([]Record, error) {
	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.historyPath, err)
	}

	var h historyFileFormat
	if err := json.Unmarshal(data, &h); err != nil {
		log.Printf("easymodel: invalid JSON in %s, starting with empty history", s.historyPath)
		return nil, nil
	}
	return h.Migrations, nil
}

// AppendMigration adds one record to the history log. The log is
// append-only; existing entries are never rewritten.
func (s *Store) AppendMigration(model string, changes interface{}) error {
	encoded, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("encoding changes for %s: %w", model, err)
	}

	migrations, err := s.History()
	if err != nil {
		return err
	}
	migrations = append(migrations, Record{
		Timestamp: time.Now().UTC(),
		Model:     model,
		Changes:   encoded,
	})

	data, err := json.MarshalIndent(historyFileFormat{Migrations: migrations}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.WriteFile(s.historyPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.historyPath, err)
	}
	return nil
}
