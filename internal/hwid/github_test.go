package hwid_test

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"hwidlock.io/actserver/internal/hwid"
)

// fakeContents emulates just enough of the GitHub contents API: GET
// returns the blob with its sha, PUT requires the current sha and
// answers 409 on mismatch.
type fakeContents struct {
	mu      sync.Mutex
	exists  bool
	content []byte
	sha     string

	authSeen string
}

func blobSHA(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

func (f *fakeContents) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if !strings.HasPrefix(r.URL.Path, "/repos/acme/licenses/contents/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.authSeen = r.Header.Get("Authorization")

		switch r.Method {
		case http.MethodGet:
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"content":  base64.StdEncoding.EncodeToString(f.content),
				"encoding": "base64",
				"sha":      f.sha,
			})

		case http.MethodPut:
			var req struct {
				Content string `json:"content"`
				SHA     string `json:"sha"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if f.exists && req.SHA != f.sha {
				w.WriteHeader(http.StatusConflict)
				return
			}
			if !f.exists && req.SHA != "" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				return
			}
			raw, err := base64.StdEncoding.DecodeString(req.Content)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.exists = true
			f.content = raw
			f.sha = blobSHA(raw)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{
				"content": map[string]string{"sha": f.sha},
			})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func newGitHubStore(t *testing.T, fake *fakeContents) *hwid.GitHubStore {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return hwid.NewGitHubStore(hwid.GitHubConfig{
		Repo:    "acme/licenses",
		Path:    "allowed_hwids.json",
		Token:   "gh-test-token",
		APIBase: srv.URL,
	})
}

func TestGitHubStoreFirstReadCreatesFile(t *testing.T) {
	ctx := context.Background()
	fake := &fakeContents{}
	store := newGitHubStore(t, fake)

	snap, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(snap.Records) != 0 {
		t.Errorf("expected empty snapshot, got %d records", len(snap.Records))
	}
	if snap.Version == "" {
		t.Error("expected a blob sha version after lazy create")
	}
	if !fake.exists {
		t.Error("first read must create the remote file")
	}
	if fake.authSeen != "Bearer gh-test-token" {
		t.Errorf("authorization header = %q", fake.authSeen)
	}
}

func TestGitHubStoreWriteRoundTripAndConflict(t *testing.T) {
	ctx := context.Background()
	store := newGitHubStore(t, &fakeContents{})

	snap, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	v2, err := store.Write(ctx, []hwid.Record{{HWID: "REMOTE-1"}}, snap.Version)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	// Stale writer must be refused by the backend's own sha check.
	_, err = store.Write(ctx, []hwid.Record{{HWID: "REMOTE-2"}}, snap.Version)
	if !errors.Is(err, hwid.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if got.Version != v2 {
		t.Errorf("version = %q, want %q", got.Version, v2)
	}
	if len(got.Records) != 1 || got.Records[0].HWID != "REMOTE-1" {
		t.Errorf("unexpected records: %+v", got.Records)
	}
}

func TestGitHubStoreServerErrorIsUnavailable(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	store := hwid.NewGitHubStore(hwid.GitHubConfig{
		Repo:    "acme/licenses",
		Path:    "allowed_hwids.json",
		APIBase: srv.URL,
	})

	_, err := store.Read(ctx)
	if !errors.Is(err, hwid.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestGitHubStoreUnreachableIsUnavailable(t *testing.T) {
	ctx := context.Background()
	store := hwid.NewGitHubStore(hwid.GitHubConfig{
		Repo:    "acme/licenses",
		Path:    "allowed_hwids.json",
		APIBase: "http://127.0.0.1:1", // nothing listens here
	})

	_, err := store.Read(ctx)
	if !errors.Is(err, hwid.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
