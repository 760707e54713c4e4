package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/navigrow/navicore/internal/state"
)

func TestFullStateSync(t *testing.T) {
	var gotPath string
	var gotReq map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(SyncResult{
			Success:      true,
			Timestamp:    "2026-08-30T12:00:00Z",
			SyncedCounts: map[string]int{"quests": 1},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	st := &state.AppState{Quests: []state.Quest{{ID: "q1"}}}
	res, err := c.FullStateSync(context.Background(), "u1", st)
	if err != nil {
		t.Fatalf("FullStateSync: %v", err)
	}

	if gotPath != "/api/sync/full" {
		t.Errorf("path = %q", gotPath)
	}
	if _, ok := gotReq["userId"]; !ok {
		t.Error("request missing userId")
	}
	if _, ok := gotReq["state"]; !ok {
		t.Error("request missing state")
	}
	if !res.Success || res.SyncedCounts["quests"] != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestFullStateSync_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(SyncResult{Success: false, Error: "quota exceeded"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FullStateSync(context.Background(), "u1", &state.AppState{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "full state sync rejected: quota exceeded") {
		t.Errorf("err = %v", err)
	}
}

func TestFullStateSync_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FullStateSync(context.Background(), "u1", &state.AppState{})
	if err == nil {
		t.Fatal("expected error")
	}
	// 5xx errors must carry the "server error" marker so the sync engine
	// classifies them as network-class.
	if !strings.Contains(err.Error(), "server error: status 502") {
		t.Errorf("err = %v", err)
	}
}

func TestFullStateSync_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening anymore

	_, err := NewClient(srv.URL).FullStateSync(context.Background(), "u1", &state.AppState{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "request failed") {
		t.Errorf("err = %v", err)
	}
}

func TestChatSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sync/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req struct {
			Messages []state.ChatMessage `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(ChatSyncResult{Success: true, MessageCount: len(req.Messages)})
	}))
	defer srv.Close()

	msgs := []state.ChatMessage{{ID: "m1", Role: "user", Content: "hi"}, {ID: "m2", Role: "assistant", Content: "hello"}}
	res, err := NewClient(srv.URL).ChatSync(context.Background(), "u1", "thread-1", msgs)
	if err != nil {
		t.Fatalf("ChatSync: %v", err)
	}
	if res.MessageCount != 2 {
		t.Errorf("messageCount = %d, want 2", res.MessageCount)
	}
}

func TestFullStateLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sync/load/u1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		// Patch fields sit beside "exists" in one flat object.
		w.Write([]byte(`{
			"exists": true,
			"user": {"id": "u1", "name": "Alex"},
			"quests": [{"id": "q1", "title": "Morning run"}]
		}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL).FullStateLoad(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FullStateLoad: %v", err)
	}
	if !res.Exists {
		t.Fatal("exists = false")
	}
	if res.Patch.User == nil || res.Patch.User.Name != "Alex" {
		t.Errorf("patch user = %+v", res.Patch.User)
	}
	if len(res.Patch.Quests) != 1 || res.Patch.Quests[0].ID != "q1" {
		t.Errorf("patch quests = %+v", res.Patch.Quests)
	}
	// Absent fields stay nil so the merge keeps local copies.
	if res.Patch.Journal != nil {
		t.Errorf("journal = %+v, want nil", res.Patch.Journal)
	}
}

func TestFullStateLoad_NoRemoteState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"exists": false}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL).FullStateLoad(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FullStateLoad: %v", err)
	}
	if res.Exists {
		t.Error("exists = true, want false")
	}
}

func TestFullStateLoad_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{broken`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FullStateLoad(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse load response") {
		t.Errorf("err = %v", err)
	}
}
