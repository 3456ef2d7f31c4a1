// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hearth-chat/hearth/lib/ref"
)

// newTestSession creates a Session pointed at the test server with a
// fixed user ID and token. Closed automatically when the test ends.
func newTestSession(t *testing.T, serverURL string) *Session {
	t.Helper()
	client, err := NewClient(ClientConfig{HomeserverURL: serverURL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@alice:example.com"), "tok_secret")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8080"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("trailing slash stripped", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8080/"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client.baseURL != "http://localhost:8080" {
			t.Errorf("baseURL = %q, want trailing slash stripped", client.baseURL)
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{})
		if err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{HomeserverURL: "://invalid"})
		if err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestRegister(t *testing.T) {
	t.Run("with desired user ID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Method != http.MethodPost || request.URL.Path != "/register" {
				t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
				writer.WriteHeader(http.StatusNotFound)
				return
			}
			if request.URL.Query().Has("access_token") {
				t.Error("register request must not carry an access token")
			}

			var body map[string]any
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if body["user_id"] != "alice" {
				t.Errorf("user_id = %v, want alice", body["user_id"])
			}

			json.NewEncoder(writer).Encode(map[string]any{
				"user_id":      "@alice:example.com",
				"access_token": "tok_fresh",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		session, err := client.Register(context.Background(), "alice")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		defer session.Close()

		if got := session.UserID().String(); got != "@alice:example.com" {
			t.Errorf("UserID = %q, want @alice:example.com", got)
		}
		if got := session.AccessToken(); got != "tok_fresh" {
			t.Errorf("AccessToken = %q, want tok_fresh", got)
		}
	})

	t.Run("server-assigned user ID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			var body map[string]any
			json.NewDecoder(request.Body).Decode(&body)
			if _, present := body["user_id"]; present {
				t.Error("empty desired ID must omit user_id from the request body")
			}
			json.NewEncoder(writer).Encode(map[string]any{
				"user_id":      "@rand0m:example.com",
				"access_token": "tok_rand",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		session, err := client.Register(context.Background(), "")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		defer session.Close()

		if got := session.UserID().String(); got != "@rand0m:example.com" {
			t.Errorf("UserID = %q, want @rand0m:example.com", got)
		}
	})

	t.Run("user ID needing encoding rejected locally", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8080"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if _, err := client.Register(context.Background(), "alice bob"); err == nil {
			t.Fatal("expected error for user ID with a space")
		}
	})

	t.Run("in-use error surfaces server reason", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(writer).Encode(map[string]any{
				"error":   "User ID already taken.",
				"errcode": 400,
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		_, err = client.Register(context.Background(), "alice")
		if err == nil {
			t.Fatal("expected registration error")
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error %v is not an *APIError", err)
		}
		if apiErr.Reason != "User ID already taken." {
			t.Errorf("Reason = %q, want server message", apiErr.Reason)
		}
		if apiErr.StatusCode != http.StatusBadRequest {
			t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
		}
	})
}

func TestPublicRooms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/public/rooms" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		json.NewEncoder(writer).Encode(map[string]any{
			"chunk": []map[string]any{
				{"room_id": "lobby", "topic": "general chat"},
				{"room_id": "dev"},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	rooms, err := client.PublicRooms(context.Background())
	if err != nil {
		t.Fatalf("PublicRooms failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("got %d rooms, want 2", len(rooms))
	}
	if rooms[0].RoomID.String() != "lobby" || rooms[0].Topic != "general chat" {
		t.Errorf("unexpected first room: %+v", rooms[0])
	}
}

func TestErrorNormalization(t *testing.T) {
	t.Run("structured error body", func(t *testing.T) {
		apiErr := normalizeError(http.StatusForbidden, []byte(`{"error": "Unrecognized access token.", "errcode": 403}`))
		if apiErr.Reason != "Unrecognized access token." {
			t.Errorf("Reason = %q", apiErr.Reason)
		}
		if apiErr.Code != 403 {
			t.Errorf("Code = %d, want 403", apiErr.Code)
		}
	})

	t.Run("non-JSON body falls back to verbatim", func(t *testing.T) {
		apiErr := normalizeError(http.StatusBadGateway, []byte("upstream unavailable"))
		if apiErr.Reason != "upstream unavailable" {
			t.Errorf("Reason = %q, want verbatim body", apiErr.Reason)
		}
		if apiErr.StatusCode != http.StatusBadGateway {
			t.Errorf("StatusCode = %d", apiErr.StatusCode)
		}
	})

	t.Run("JSON body without error field falls back to verbatim", func(t *testing.T) {
		apiErr := normalizeError(http.StatusInternalServerError, []byte(`{"detail": "boom"}`))
		if apiErr.Reason != `{"detail": "boom"}` {
			t.Errorf("Reason = %q, want whole body", apiErr.Reason)
		}
	})
}

func TestFeedbackReason(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if got := FeedbackReason(nil); got != "" {
			t.Errorf("FeedbackReason(nil) = %q, want empty", got)
		}
	})

	t.Run("wrapped APIError yields server reason", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusForbidden)
			json.NewEncoder(writer).Encode(map[string]any{"error": "You are not in room lobby.", "errcode": 403})
		}))
		defer server.Close()

		session := newTestSession(t, server.URL)
		_, err := session.SendMessage(context.Background(), ref.MustParseRoomID("lobby"), "hi")
		if err == nil {
			t.Fatal("expected send error")
		}
		if got := FeedbackReason(err); got != "You are not in room lobby." {
			t.Errorf("FeedbackReason = %q, want server reason", got)
		}
	})

	t.Run("plain error yields its message", func(t *testing.T) {
		if got := FeedbackReason(errors.New("dial tcp: refused")); got != "dial tcp: refused" {
			t.Errorf("FeedbackReason = %q", got)
		}
	})
}
