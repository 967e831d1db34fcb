package hwid

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the registry as a JSON array in a local file. The
// version token is the SHA-256 digest of the file's raw bytes, so a
// write only lands if the file content is byte-identical to what the
// writer last read. The check-then-write section is serialized by an
// in-process mutex; no OS-level file locking is used.
type FileStore struct {
	path string

	mu sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Read(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readRaw()
	if err != nil {
		return Snapshot{}, err
	}

	records, err := decodeRecords(raw)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Records: records, Version: digest(raw)}, nil
}

func (s *FileStore) Write(ctx context.Context, records []Record, expected Version) (Version, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readRaw()
	if err != nil {
		return "", err
	}
	if digest(current) != expected {
		return "", ErrConflict
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode registry: %w", err)
	}
	if err := s.writeRaw(out); err != nil {
		return "", err
	}

	return digest(out), nil
}

func (s *FileStore) Close() error {
	return nil
}

// readRaw returns the file bytes, creating an empty registry on first
// read. Callers hold s.mu.
func (s *FileStore) readRaw() ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		empty := []byte("[]")
		if err := s.writeRaw(empty); err != nil {
			return nil, err
		}
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, s.path, err)
	}
	return raw, nil
}

// writeRaw replaces the file atomically via temp file + rename, so a
// partial write is never observable. Callers hold s.mu.
func (s *FileStore) writeRaw(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ErrUnavailable, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write temp: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: close temp: %v", ErrUnavailable, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: rename: %v", ErrUnavailable, err)
	}
	return nil
}

// decodeRecords parses the persisted registry. Legacy files that hold
// a plain array of HWID strings are read as never-expiring records.
func decodeRecords(raw []byte) ([]Record, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var legacy []string
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("%w: malformed registry payload", ErrUnavailable)
	}
	records = make([]Record, 0, len(legacy))
	for _, h := range legacy {
		records = append(records, Record{HWID: h})
	}
	return records, nil
}

func digest(raw []byte) Version {
	sum := sha256.Sum256(raw)
	return Version(hex.EncodeToString(sum[:]))
}
