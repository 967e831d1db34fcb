package hwid

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"hwidlock.io/actserver/internal/expiry"
)

var (
	// ErrNotFound is returned when a mutation targets a HWID that is
	// not in the registry. Callers usually treat it as a no-op 404,
	// not a hard failure.
	ErrNotFound = errors.New("hwid not found")

	// ErrBusy is returned when a mutation kept losing the
	// compare-and-swap race until its retry budget ran out.
	ErrBusy = errors.New("registry busy")
)

// Service exposes the registry operations over a versioned Store.
// Mutations follow read-modify-write with bounded retry: the change is
// recomputed against a fresh snapshot after every conflict, never
// blindly re-written.
type Service struct {
	store Store

	// MaxAttempts bounds how often a mutation retries after a version
	// conflict before giving up with ErrBusy.
	MaxAttempts int

	// RetryBackoff is the base delay between conflict retries. The
	// actual delay is jittered to keep contending writers from
	// lock-stepping.
	RetryBackoff time.Duration

	now func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store:        store,
		MaxAttempts:  5,
		RetryBackoff: 25 * time.Millisecond,
		now:          time.Now,
	}
}

// Lookup returns the record for the given HWID, or nil if it is not
// registered. Read-only; reflects some committed state as of call time.
func (s *Service) Lookup(ctx context.Context, hwid string) (*Record, error) {
	snap, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.Records {
		if snap.Records[i].HWID == hwid {
			rec := snap.Records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// AddOrUpdate registers a HWID with the given expiration, replacing the
// expiration of an existing record in place. It reports whether an
// existing record was updated rather than a new one appended.
func (s *Service) AddOrUpdate(ctx context.Context, hwid string, exp expiry.Expiry) (Record, bool, error) {
	rec := Record{HWID: hwid, Expires: exp}

	var updated bool
	err := s.mutate(ctx, func(records []Record) ([]Record, error) {
		updated = false
		for i := range records {
			if records[i].HWID == hwid {
				records[i].Expires = exp
				updated = true
				return records, nil
			}
		}
		return append(records, rec), nil
	})
	if err != nil {
		return Record{}, false, err
	}
	return rec, updated, nil
}

// Remove deletes a HWID from the registry. Returns ErrNotFound if no
// record matched.
func (s *Service) Remove(ctx context.Context, hwid string) error {
	return s.mutate(ctx, func(records []Record) ([]Record, error) {
		for i := range records {
			if records[i].HWID == hwid {
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

// List returns every record with its expiration evaluated against the
// current clock. Expired records stay listed until removed.
func (s *Service) List(ctx context.Context) ([]Status, error) {
	snap, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]Status, 0, len(snap.Records))
	for _, rec := range snap.Records {
		out = append(out, Status{Record: rec, Expired: rec.Expires.Expired(now)})
	}
	return out, nil
}

// mutate runs one read-modify-write cycle, retrying the whole cycle on
// version conflict. An error from apply aborts immediately.
func (s *Service) mutate(ctx context.Context, apply func([]Record) ([]Record, error)) error {
	for attempt := 0; attempt < s.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.waitRetry(ctx); err != nil {
				return err
			}
		}

		snap, err := s.store.Read(ctx)
		if err != nil {
			return err
		}

		next, err := apply(cloneRecords(snap.Records))
		if err != nil {
			return err
		}

		if _, err := s.store.Write(ctx, next, snap.Version); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: gave up after %d attempts", ErrBusy, s.MaxAttempts)
}

func (s *Service) waitRetry(ctx context.Context) error {
	if s.RetryBackoff <= 0 {
		return ctx.Err()
	}
	delay := s.RetryBackoff/2 + time.Duration(rand.Int63n(int64(s.RetryBackoff)))
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
