package admin_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"hwidlock.io/actserver/internal/http/admin"
	"hwidlock.io/actserver/internal/hwid"
)

func newTestHandler(t *testing.T) *admin.Handler {
	t.Helper()
	store := hwid.NewFileStore(filepath.Join(t.TempDir(), "allowed_hwids.json"))
	return admin.NewHandler(hwid.NewService(store), 5*time.Second)
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestAddOrUpdate(t *testing.T) {
	t.Run("rejects missing hwid", func(t *testing.T) {
		h := newTestHandler(t)

		rec := doJSON(t, h.AddOrUpdate, http.MethodPost, "/admin/add_or_update", map[string]any{"days": 30})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("adds with day count", func(t *testing.T) {
		h := newTestHandler(t)
		before := time.Now().Unix()

		rec := doJSON(t, h.AddOrUpdate, http.MethodPost, "/admin/add_or_update",
			map[string]any{"hwid": "NEW", "days": 30})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp struct {
			OK      bool   `json:"ok"`
			Message string `json:"message"`
			HWID    string `json:"hwid"`
			Expires *int64 `json:"expires"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if !resp.OK || resp.Message != "added" || resp.HWID != "NEW" {
			t.Errorf("unexpected response: %+v", resp)
		}
		if resp.Expires == nil {
			t.Fatal("expected an expiration")
		}
		want := before + 30*86400
		if *resp.Expires < want || *resp.Expires > want+5 {
			t.Errorf("expires = %d, want about %d", *resp.Expires, want)
		}
	})

	t.Run("adds without expiration", func(t *testing.T) {
		h := newTestHandler(t)

		rec := doJSON(t, h.AddOrUpdate, http.MethodPost, "/admin/add_or_update",
			map[string]any{"hwid": "FOREVER"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp struct {
			Expires *int64 `json:"expires"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Expires != nil {
			t.Errorf("expected null expires, got %d", *resp.Expires)
		}
	})

	t.Run("re-add reports update", func(t *testing.T) {
		h := newTestHandler(t)

		doJSON(t, h.AddOrUpdate, http.MethodPost, "/admin/add_or_update",
			map[string]any{"hwid": "TWICE", "days": 10})
		rec := doJSON(t, h.AddOrUpdate, http.MethodPost, "/admin/add_or_update",
			map[string]any{"hwid": "TWICE", "expires": "2030-01-01"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp struct {
			Message string `json:"message"`
			Expires *int64 `json:"expires"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Message != "updated" {
			t.Errorf("message = %q, want updated", resp.Message)
		}
		want := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
		if resp.Expires == nil || *resp.Expires != want {
			t.Errorf("expires = %v, want %d", resp.Expires, want)
		}
	})
}

func TestRemove(t *testing.T) {
	t.Run("removes existing hwid", func(t *testing.T) {
		h := newTestHandler(t)
		doJSON(t, h.AddOrUpdate, http.MethodPost, "/admin/add_or_update",
			map[string]any{"hwid": "DOOMED"})

		rec := doJSON(t, h.Remove, http.MethodPost, "/admin/remove", map[string]any{"hwid": "DOOMED"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp admin.RemoveResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if !resp.OK || resp.Message != "removed" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("404 for unknown hwid", func(t *testing.T) {
		h := newTestHandler(t)

		rec := doJSON(t, h.Remove, http.MethodPost, "/admin/remove", map[string]any{"hwid": "GHOST"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}

		var resp admin.RemoveResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.OK || resp.Message != "not_found" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("rejects missing hwid", func(t *testing.T) {
		h := newTestHandler(t)

		rec := doJSON(t, h.Remove, http.MethodPost, "/admin/remove", map[string]any{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestList(t *testing.T) {
	h := newTestHandler(t)

	t.Run("empty registry lists empty", func(t *testing.T) {
		rec := doJSON(t, h.List, http.MethodGet, "/admin/list", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp struct {
			HWIDs []json.RawMessage `json:"hwids"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.HWIDs == nil || len(resp.HWIDs) != 0 {
			t.Errorf("expected empty hwids array, got %s", rec.Body.String())
		}
	})

	t.Run("flags expired entries", func(t *testing.T) {
		doJSON(t, h.AddOrUpdate, http.MethodPost, "/admin/add_or_update",
			map[string]any{"hwid": "LIVE", "days": 30})
		doJSON(t, h.AddOrUpdate, http.MethodPost, "/admin/add_or_update",
			map[string]any{"hwid": "DEAD", "expires": 1000000})

		rec := doJSON(t, h.List, http.MethodGet, "/admin/list", nil)
		var resp struct {
			HWIDs []struct {
				HWID    string `json:"hwid"`
				Expired bool   `json:"expired"`
			} `json:"hwids"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if len(resp.HWIDs) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(resp.HWIDs))
		}
		for _, e := range resp.HWIDs {
			switch e.HWID {
			case "LIVE":
				if e.Expired {
					t.Error("LIVE flagged expired")
				}
			case "DEAD":
				if !e.Expired {
					t.Error("DEAD not flagged expired")
				}
			}
		}
	})
}
