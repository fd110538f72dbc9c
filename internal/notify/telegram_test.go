package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestTelegramSendSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat", srv.URL, time.Second, testLogger())
	if err := tg.Send(context.Background(), "hola"); err != nil {
		t.Fatalf("Send should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id incorrect: %#v", received)
	}
	if received["text"] != "hola" {
		t.Fatalf("text incorrect: %#v", received)
	}
	if received["parse_mode"] != "Markdown" {
		t.Fatalf("parse_mode incorrect: %#v", received)
	}
}

func TestTelegramSendNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat", srv.URL, time.Second, testLogger())
	if err := tg.Send(context.Background(), "hola"); err == nil {
		t.Fatal("ok=false should error")
	}
}

func TestTelegramSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat", srv.URL, time.Second, testLogger())
	if err := tg.Send(context.Background(), "hola"); err == nil {
		t.Fatal("HTTP 502 should error")
	}
}

func TestFetchUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "getUpdates") {
			t.Fatalf("path should contain getUpdates, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("offset"); got != "8" {
			t.Fatalf("offset = %s, want cursor+1 = 8", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{
					"update_id": 8,
					"message":   map[string]any{"text": "/precios", "chat": map[string]any{"id": 6620}},
				},
				{"update_id": 9}, // no message payload, must be skipped
			},
		})
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat", srv.URL, time.Second, testLogger())
	updates, err := tg.FetchUpdates(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	u := updates[0]
	if u.ID != 8 || u.Text != "/precios" || u.SenderID != "6620" {
		t.Fatalf("unexpected update: %+v", u)
	}
}

func TestFetchUpdatesNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat", srv.URL, time.Second, testLogger())
	if _, err := tg.FetchUpdates(context.Background(), 0); err == nil {
		t.Fatal("ok=false should error")
	}
}
