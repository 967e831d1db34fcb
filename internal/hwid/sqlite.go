package hwid

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
)

// SQLiteStore persists the registry as a single JSON document row with
// an integer revision. The version token is the revision; a write is a
// conditional UPDATE on it, so the database performs the
// compare-and-swap.
type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type registryRow struct {
	Revision int64  `db:"revision"`
	Payload  string `db:"payload"`
}

func (s *SQLiteStore) Read(ctx context.Context) (Snapshot, error) {
	row, err := s.readRow(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	records, err := decodeRecords([]byte(row.Payload))
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Records: records,
		Version: Version(strconv.FormatInt(row.Revision, 10)),
	}, nil
}

func (s *SQLiteStore) Write(ctx context.Context, records []Record, expected Version) (Version, error) {
	rev, err := strconv.ParseInt(string(expected), 10, 64)
	if err != nil {
		return "", ErrConflict
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode registry: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE registry
		SET revision = revision + 1, payload = ?
		WHERE registry_id = 1 AND revision = ?
	`, string(payload), rev)
	if err != nil {
		return "", fmt.Errorf("%w: write registry: %v", ErrUnavailable, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("%w: rows affected: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return "", ErrConflict
	}

	return Version(strconv.FormatInt(rev+1, 10)), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// readRow fetches the registry document, inserting the empty row on
// first use.
func (s *SQLiteStore) readRow(ctx context.Context) (*registryRow, error) {
	var row registryRow
	err := s.db.GetContext(ctx, &row, `SELECT revision, payload FROM registry WHERE registry_id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO registry (registry_id) VALUES (1)`); err != nil {
			return nil, fmt.Errorf("%w: init registry: %v", ErrUnavailable, err)
		}
		err = s.db.GetContext(ctx, &row, `SELECT revision, payload FROM registry WHERE registry_id = 1`)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read registry: %v", ErrUnavailable, err)
	}
	return &row, nil
}
