package e2e

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext carries HTTP state across the steps of one scenario.
type TestContext struct {
	BaseURL string
	client  *http.Client

	runID        string
	accessToken  string
	lastStatus   int
	lastResponse map[string]any
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears scenario state and picks a fresh suffix for entity ids so
// scenarios never collide on a long-lived server.
func (tc *TestContext) Reset() {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	tc.runID = hex.EncodeToString(buf)
	tc.accessToken = ""
	tc.lastStatus = 0
	tc.lastResponse = nil
}

// ID maps a logical id from a feature file ("A1") to this scenario's id.
func (tc *TestContext) ID(logical string) string {
	return logical + "-" + tc.runID
}

func (tc *TestContext) GetAccessToken() string     { return tc.accessToken }
func (tc *TestContext) SetAccessToken(token string) { tc.accessToken = token }
func (tc *TestContext) LastStatus() int             { return tc.lastStatus }

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, tc.authHeader())
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body, tc.authHeader())
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	if headers == nil {
		headers = tc.authHeader()
	}
	return tc.do(http.MethodGet, path, nil, headers)
}

// GetResponseField resolves a dotted path such as "data.summary.totalClients"
// or "data.0.clientName" in the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var current any = tc.lastResponse
	for _, part := range strings.Split(field, ".") {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response", field)
			}
			current = v
		case []any:
			var idx int
			if _, err := fmt.Sscanf(part, "%d", &idx); err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, field)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("cannot descend into %q", field)
		}
	}
	return current, nil
}

func (tc *TestContext) authHeader() map[string]string {
	if tc.accessToken == "" {
		return map[string]string{}
	}
	return map[string]string{"Authorization": "Bearer " + tc.accessToken}
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastResponse = map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tc.lastResponse); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}
