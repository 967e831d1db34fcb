// Package expiry normalizes the expiration encodings accepted by the
// registry (epoch seconds, ISO date strings, day counts, absent) into a
// single optional UTC instant. Everything downstream reasons only in
// Expiry values; parsing happens once, at the boundary.
package expiry

import (
	"encoding/json"
	"strconv"
	"time"
)

// Expiry is an optional expiration instant with second granularity.
// The zero value means "never expires".
type Expiry struct {
	unix int64
	set  bool
}

// Never returns an Expiry that never expires.
func Never() Expiry {
	return Expiry{}
}

// At returns an Expiry at the given instant (truncated to whole seconds).
func At(t time.Time) Expiry {
	return Expiry{unix: t.Unix(), set: true}
}

// FromUnix returns an Expiry at the given epoch second.
func FromUnix(sec int64) Expiry {
	return Expiry{unix: sec, set: true}
}

// FromDays returns an Expiry of now plus the given number of days.
func FromDays(days int, now time.Time) Expiry {
	return FromUnix(now.Unix() + int64(days)*86400)
}

// Never reports whether the expiry is unset.
func (e Expiry) Never() bool {
	return !e.set
}

// Unix returns the epoch second of the expiry; ok is false for Never.
func (e Expiry) Unix() (int64, bool) {
	return e.unix, e.set
}

// Time returns the expiry instant in UTC; ok is false for Never.
func (e Expiry) Time() (time.Time, bool) {
	if !e.set {
		return time.Time{}, false
	}
	return time.Unix(e.unix, 0).UTC(), true
}

// Expired reports whether the expiry has passed at the given instant.
// Never expires is never expired, and the comparison is strict: the
// expiration second itself is still valid.
func (e Expiry) Expired(now time.Time) bool {
	if !e.set {
		return false
	}
	return now.Unix() > e.unix
}

// Supported ISO layouts, tried in order. All are interpreted as UTC.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse normalizes a decoded JSON expiration value. It is total: any
// value it cannot make sense of resolves to Never. Accepted forms, in
// priority order: numeric epoch seconds, a numeric string, an ISO-8601
// date or date-time string, nil/anything else.
func Parse(v any) Expiry {
	switch x := v.(type) {
	case nil:
		return Never()
	case float64:
		return FromUnix(int64(x))
	case int:
		return FromUnix(int64(x))
	case int64:
		return FromUnix(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return FromUnix(n)
		}
		return parseString(x.String())
	case string:
		return parseString(x)
	}
	return Never()
}

func parseString(s string) Expiry {
	if s == "" {
		return Never()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromUnix(n)
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return At(t)
		}
	}
	return Never()
}

// MarshalJSON writes the expiry as an epoch integer, or null for Never.
func (e Expiry) MarshalJSON() ([]byte, error) {
	if !e.set {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(e.unix, 10)), nil
}

// UnmarshalJSON accepts the persisted forms found across backends:
// epoch integer, ISO date string, or null.
func (e *Expiry) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*e = Parse(v)
	return nil
}
