package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Supabase records completions through a project's PostgREST endpoint.
type Supabase struct {
	endpoint string
	key      string
	client   *http.Client
}

// NewSupabase targets table in the project at baseURL. A nil client uses a
// client with a 15 second timeout.
func NewSupabase(baseURL, key, table string, client *http.Client) *Supabase {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Supabase{
		endpoint: strings.TrimRight(baseURL, "/") + "/rest/v1/" + url.PathEscape(table),
		key:      key,
		client:   client,
	}
}

type supabaseRow struct {
	FileID    string    `json:"telegram_file_id"`
	Name      string    `json:"original_name"`
	URL       string    `json:"hls_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Insert implements Recorder.
func (s *Supabase) Insert(ctx context.Context, rec Record) error {
	rec = rec.normalized()
	body, err := json.Marshal([]supabaseRow{{
		FileID:    rec.FileID,
		Name:      rec.Name,
		URL:       rec.URL,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt,
	}})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase insert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("supabase insert: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Close implements Recorder.
func (s *Supabase) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
