package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotPayload)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	telegram := NewTelegram(server.Client(), "test-token", "12345")
	telegram.baseURL = server.URL

	if err := telegram.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("Expected bot API path, got '%s'", gotPath)
	}
	if gotPayload["chat_id"] != "12345" {
		t.Errorf("Expected chat_id '12345', got '%s'", gotPayload["chat_id"])
	}
	if gotPayload["text"] != "hello" {
		t.Errorf("Expected text 'hello', got '%s'", gotPayload["text"])
	}
}

func TestTelegramSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	telegram := NewTelegram(server.Client(), "bad-token", "12345")
	telegram.baseURL = server.URL

	err := telegram.Send(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error for a 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Expected error to mention the status code, got %v", err)
	}
}

func TestTelegramSendRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	telegram := NewTelegram(server.Client(), "test-token", "12345")
	telegram.baseURL = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := telegram.Send(ctx, "hello"); err == nil {
		t.Error("Expected error for a cancelled context")
	}
}
