/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend talks to the content-indexing service (handwriting OCR,
// embeddings). The engine only ever notifies it; search results come back
// through separate read endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "inkpad/internal/log"
)

// Client is a minimal HTTP client for the indexer API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
	log     *slog.Logger
}

// NewClient creates an indexer client. baseURL may include a trailing
// slash; it will be normalized.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     applog.WithComponent("backend"),
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var r *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	} else {
		r = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("indexer %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// pageEvent is the wire shape for page-level notifications.
type pageEvent struct {
	NoteID    string `json:"note_id"`
	PageIndex int    `json:"page_index"`
}

// NotifyPageLeft tells the indexer a page is no longer being edited and can
// be re-recognized.
func (c *Client) NotifyPageLeft(ctx context.Context, noteID string, pageIndex int) error {
	return c.doJSON(ctx, http.MethodPost, "/api/index/page-left",
		pageEvent{NoteID: noteID, PageIndex: pageIndex}, nil)
}

// NotifyPageDeleted tells the indexer to drop everything recognized for a
// deleted page.
func (c *Client) NotifyPageDeleted(ctx context.Context, noteID string, pageIndex int) error {
	return c.doJSON(ctx, http.MethodPost, "/api/index/page-deleted",
		pageEvent{NoteID: noteID, PageIndex: pageIndex}, nil)
}

// SearchResult is one remote search match.
type SearchResult struct {
	NoteID    string  `json:"note_id"`
	PageIndex int     `json:"page_index"`
	Score     float64 `json:"score"`
	Snippet   string  `json:"snippet"`
}

// Search queries the hosted index (read-only).
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	var out []SearchResult
	path := "/api/search?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Notifier adapts Client to the engine's synchronous notification hooks.
// Deliveries run on background goroutines: a slow or dead indexer must
// never stall a pan or a page delete.
type Notifier struct {
	client *Client
}

// NewNotifier wraps a client for engine wiring.
func NewNotifier(c *Client) *Notifier { return &Notifier{client: c} }

func (n *Notifier) PageLeft(noteID string, pageIndex int) {
	go n.deliver("page_left", noteID, pageIndex, n.client.NotifyPageLeft)
}

func (n *Notifier) PageDeleted(noteID string, pageIndex int) {
	go n.deliver("page_deleted", noteID, pageIndex, n.client.NotifyPageDeleted)
}

func (n *Notifier) deliver(event, noteID string, pageIndex int, send func(context.Context, string, int) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := send(ctx, noteID, pageIndex); err != nil {
		n.client.log.Warn("indexer notification failed",
			slog.String("event", event),
			slog.String("note", noteID),
			slog.Int("page", pageIndex),
			slog.Any("err", err))
	}
}
