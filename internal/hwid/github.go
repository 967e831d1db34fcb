package hwid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHubConfig locates the registry file in a repository reachable
// through the GitHub contents API.
type GitHubConfig struct {
	Repo   string // "owner/name"
	Path   string // file path within the repository
	Branch string // empty means the repository default branch
	Token  string

	// APIBase overrides the API endpoint (used by tests and GitHub
	// Enterprise installs).
	APIBase string
}

// GitHubStore persists the registry through the GitHub contents API.
// The version token is the file's blob SHA; the update call carries it,
// so GitHub itself performs the compare-and-swap and a stale writer
// gets a conflict back instead of clobbering the winner's commit.
type GitHubStore struct {
	cfg GitHubConfig
	hc  *http.Client
}

func NewGitHubStore(cfg GitHubConfig) *GitHubStore {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultGitHubAPI
	}
	return &GitHubStore{
		cfg: cfg,
		hc:  &http.Client{Timeout: 30 * time.Second},
	}
}

type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

func (s *GitHubStore) Read(ctx context.Context) (Snapshot, error) {
	status, body, err := s.do(ctx, http.MethodGet, s.contentURL(true), nil)
	if err != nil {
		return Snapshot{}, err
	}

	if status == http.StatusNotFound {
		// First run: create the empty registry so subsequent writes
		// have a blob SHA to swap against.
		version, err := s.put(ctx, nil, "")
		if err != nil {
			return Snapshot{}, err
		}
		return Snapshot{Version: version}, nil
	}
	if status != http.StatusOK {
		return Snapshot{}, fmt.Errorf("%w: contents api status %d", ErrUnavailable, status)
	}

	var cr contentResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode contents response: %v", ErrUnavailable, err)
	}
	if cr.Encoding != "base64" {
		return Snapshot{}, fmt.Errorf("%w: unexpected content encoding %q", ErrUnavailable, cr.Encoding)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(cr.Content, "\n", ""))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode content: %v", ErrUnavailable, err)
	}

	records, err := decodeRecords(raw)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Records: records, Version: Version(cr.SHA)}, nil
}

func (s *GitHubStore) Write(ctx context.Context, records []Record, expected Version) (Version, error) {
	return s.put(ctx, records, expected)
}

func (s *GitHubStore) Close() error {
	s.hc.CloseIdleConnections()
	return nil
}

// put commits the list. An empty expected version creates the file.
func (s *GitHubStore) put(ctx context.Context, records []Record, expected Version) (Version, error) {
	if records == nil {
		records = []Record{}
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode registry: %w", err)
	}

	req := map[string]string{
		"message": fmt.Sprintf("actserver: update hwid registry (%d entries)", len(records)),
		"content": base64.StdEncoding.EncodeToString(payload),
	}
	if expected != "" {
		req["sha"] = string(expected)
	}
	if s.cfg.Branch != "" {
		req["branch"] = s.cfg.Branch
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode commit request: %w", err)
	}

	status, respBody, err := s.do(ctx, http.MethodPut, s.contentURL(false), body)
	if err != nil {
		return "", err
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		// fall through to decode
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// GitHub reports a stale or missing sha as 409/422.
		return "", ErrConflict
	default:
		return "", fmt.Errorf("%w: contents api status %d", ErrUnavailable, status)
	}

	var pr putResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return "", fmt.Errorf("%w: decode commit response: %v", ErrUnavailable, err)
	}
	return Version(pr.Content.SHA), nil
}

func (s *GitHubStore) do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, b, nil
}

func (s *GitHubStore) contentURL(withRef bool) string {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", s.cfg.APIBase, s.cfg.Repo, s.cfg.Path)
	if withRef && s.cfg.Branch != "" {
		url += "?ref=" + s.cfg.Branch
	}
	return url
}
