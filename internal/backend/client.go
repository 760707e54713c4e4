// Package backend implements the HTTP client for the remote persistence
// service: full-state push, single-thread chat push, and full-state load.
// All three are plain request/response JSON RPCs; failures surface as
// errors whose text the sync engine classifies as network vs application.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/navigrow/navicore/internal/state"
)

// requestTimeout bounds every RPC so a hung request cannot keep the sync
// engine's in-flight flag stuck forever.
const requestTimeout = 30 * time.Second

var tracer = otel.Tracer("navicore/backend")

// SyncResult is the response to a full-state push.
type SyncResult struct {
	Success      bool           `json:"success"`
	Timestamp    string         `json:"timestamp"`
	SyncedCounts map[string]int `json:"syncedCounts,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// ChatSyncResult is the response to a single-thread chat push.
type ChatSyncResult struct {
	Success      bool   `json:"success"`
	MessageCount int    `json:"messageCount"`
	Error        string `json:"error,omitempty"`
}

// LoadResult is the response to a full-state load. Every field is
// independently optional; Patch carries whatever the backend returned.
type LoadResult struct {
	Exists bool        `json:"exists"`
	Patch  state.Patch `json:"-"`
}

// Client talks to the remote sync service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given service base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type fullSyncRequest struct {
	UserID string         `json:"userId"`
	State  *state.AppState `json:"state"`
}

// FullStateSync pushes the entire application state.
func (c *Client) FullStateSync(ctx context.Context, userID string, st *state.AppState) (*SyncResult, error) {
	ctx, span := tracer.Start(ctx, "backend.FullStateSync",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	var result SyncResult
	err := c.post(ctx, "/api/sync/full", fullSyncRequest{UserID: userID, State: st}, &result)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !result.Success {
		err := fmt.Errorf("full state sync rejected: %s", result.Error)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &result, nil
}

type chatSyncRequest struct {
	UserID   string              `json:"userId"`
	ThreadID string              `json:"threadId"`
	Messages []state.ChatMessage `json:"messages"`
}

// ChatSync pushes one chat thread's messages.
func (c *Client) ChatSync(ctx context.Context, userID, threadID string, messages []state.ChatMessage) (*ChatSyncResult, error) {
	ctx, span := tracer.Start(ctx, "backend.ChatSync",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("thread.id", threadID),
			attribute.Int("messages", len(messages))))
	defer span.End()

	var result ChatSyncResult
	err := c.post(ctx, "/api/sync/chat", chatSyncRequest{UserID: userID, ThreadID: threadID, Messages: messages}, &result)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !result.Success {
		err := fmt.Errorf("chat sync rejected: %s", result.Error)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &result, nil
}

// FullStateLoad pulls the stored state for a user. The returned patch has
// every field independently optional; partial data is preferred over
// rejecting the whole load.
func (c *Client) FullStateLoad(ctx context.Context, userID string) (*LoadResult, error) {
	ctx, span := tracer.Start(ctx, "backend.FullStateLoad",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/sync/load/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var result LoadResult
	if err := json.Unmarshal(body, &result); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("parse load response: %w", err)
	}
	// The patch fields sit alongside "exists" in the same JSON object.
	if err := json.Unmarshal(body, &result.Patch); err != nil {
		return nil, fmt.Errorf("parse load response: %w", err)
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request rejected: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
