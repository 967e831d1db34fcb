package hwid

import (
	"context"
	"errors"
)

// Version is an opaque token identifying one committed state of the
// registry. A Write is accepted only against the version returned by
// the Read it was computed from.
type Version string

// Snapshot is the full registry as of one committed state. It is a
// copy; mutating it does not affect the store.
type Snapshot struct {
	Records []Record
	Version Version
}

var (
	// ErrConflict means the backend's version moved since the caller's
	// read. Nothing was written.
	ErrConflict = errors.New("registry version conflict")

	// ErrUnavailable means the backend is unreachable or returned a
	// payload that could not be decoded.
	ErrUnavailable = errors.New("registry store unavailable")
)

// Store is the versioned persistence capability behind the registry.
// A Read of a store that does not exist yet returns an empty snapshot
// and lazily creates the empty persisted instance; it never fails with
// "not found". Write either fully commits the new list under the
// expected version or changes nothing.
type Store interface {
	Read(ctx context.Context) (Snapshot, error)
	Write(ctx context.Context, records []Record, expected Version) (Version, error)
	Close() error
}
