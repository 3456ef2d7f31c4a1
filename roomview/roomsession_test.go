// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package roomview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hearth-chat/hearth/lib/clock"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/messaging"
)

// fakeHomeserver is a scripted home-server for RoomSession tests. It
// answers join, member list, and profile requests, and serves /events
// from a script (one entry per poll; the last entry repeats for every
// later poll).
type fakeHomeserver struct {
	t      *testing.T
	script []eventsResponse

	mu        sync.Mutex
	pollCalls int
	// pollCursors records the from= value of each /events request.
	pollCursors chan string
}

type eventsResponse struct {
	chunk []map[string]any
	end   string
	fail  bool
}

func newFakeHomeserver(t *testing.T, script []eventsResponse) (*fakeHomeserver, *httptest.Server) {
	t.Helper()
	fake := &fakeHomeserver{
		t:           t,
		script:      script,
		pollCursors: make(chan string, 64),
	}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return fake, server
}

func (f *fakeHomeserver) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	path := request.URL.Path
	switch {
	case request.Method == http.MethodPut && strings.HasSuffix(path, "/state"):
		writer.Write([]byte(`{}`))

	case strings.HasSuffix(path, "/members/list"):
		json.NewEncoder(writer).Encode(map[string]any{
			"chunk": []map[string]any{
				{
					"type":           "sy.room.member",
					"room_id":        "lobby",
					"user_id":        "@alice:example.com",
					"target_user_id": "@alice:example.com",
					"content":        map[string]any{"membership": "join"},
				},
			},
		})

	case strings.HasSuffix(path, "/displayname"):
		json.NewEncoder(writer).Encode(map[string]any{"displayname": "Resident"})

	case strings.HasSuffix(path, "/avatar_url"):
		json.NewEncoder(writer).Encode(map[string]any{"avatar_url": ""})

	case path == "/events":
		f.mu.Lock()
		index := f.pollCalls
		if index >= len(f.script) {
			index = len(f.script) - 1
		}
		f.pollCalls++
		f.mu.Unlock()

		select {
		case f.pollCursors <- request.URL.Query().Get("from"):
		default:
		}

		step := f.script[index]
		if step.fail {
			writer.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(writer).Encode(map[string]any{"error": "Event stream unavailable.", "errcode": 500})
			return
		}
		chunk := step.chunk
		if chunk == nil {
			chunk = []map[string]any{}
		}
		json.NewEncoder(writer).Encode(map[string]any{"chunk": chunk, "end": step.end})

	default:
		f.t.Errorf("unexpected request: %s %s", request.Method, path)
		writer.WriteHeader(http.StatusNotFound)
	}
}

func openTestRoomSession(t *testing.T, serverURL string, config RoomSessionConfig) *RoomSession {
	t.Helper()
	client, err := messaging.NewClient(messaging.ClientConfig{HomeserverURL: serverURL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@alice:example.com"), "tok_secret")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	roomSession, err := Open(context.Background(), session, ref.MustParseRoomID("lobby"), config)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(roomSession.Close)
	return roomSession
}

// eventually polls condition until it holds or the deadline passes.
func eventually(t *testing.T, condition func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(message)
}

func TestRoomSessionLiveStream(t *testing.T) {
	_, server := newFakeHomeserver(t, []eventsResponse{
		{
			chunk: []map[string]any{{
				"type":           "sy.room.member",
				"room_id":        "lobby",
				"user_id":        "@bob:example.com",
				"target_user_id": "@bob:example.com",
				"content":        map[string]any{"membership": "join"},
			}},
			end: "C1",
		},
		{
			chunk: []map[string]any{{
				"type":    "sy.room.message",
				"room_id": "lobby",
				"user_id": "@bob:example.com",
				"msg_id":  "m1-1",
				"content": map[string]any{"msgtype": "sy.text", "body": "hello"},
			}},
			end: "C2",
		},
		{end: "C2"},
	})

	roomSession := openTestRoomSession(t, server.URL, RoomSessionConfig{
		Clock: clock.Fake(time.Unix(0, 0)),
	})
	view := roomSession.View()

	// Seeded from the member list before the stream delivered anything.
	if _, exists := view.Member(ref.MustParseUserID("@alice:example.com")); !exists {
		t.Error("member table not seeded from member list")
	}

	eventually(t, func() bool {
		return len(view.Messages()) == 1
	}, "message from the stream never reached the view")

	entry, exists := view.Member(ref.MustParseUserID("@bob:example.com"))
	if !exists {
		t.Fatal("streamed member event not reconciled")
	}
	if entry.Membership != messaging.MembershipJoin {
		t.Errorf("Membership = %q", entry.Membership)
	}
	if entry.DisplayName != "Resident" {
		t.Errorf("DisplayName = %q, want enriched value", entry.DisplayName)
	}
	if view.Messages()[0].MessageBody() != "hello" {
		t.Errorf("message body = %q", view.Messages()[0].MessageBody())
	}

	eventually(t, func() bool {
		return roomSession.Cursor() == "C2"
	}, "cursor never reached the final End token")

	if feedback := view.Feedback(); feedback != "" {
		t.Errorf("Feedback = %q, want empty on a healthy stream", feedback)
	}
}

func TestRoomSessionStreamFailure(t *testing.T) {
	fake, server := newFakeHomeserver(t, []eventsResponse{
		{fail: true},
	})

	fakeClock := clock.Fake(time.Unix(0, 0))
	roomSession := openTestRoomSession(t, server.URL, RoomSessionConfig{Clock: fakeClock})
	view := roomSession.View()

	// First poll fails: the reason surfaces as user feedback and the
	// cursor stays at the start of the stream.
	if got := <-fake.pollCursors; got != messaging.StartCursor {
		t.Errorf("first poll cursor = %q, want %s", got, messaging.StartCursor)
	}
	eventually(t, func() bool {
		return view.Feedback() == "Event stream unavailable."
	}, "poll failure never surfaced as feedback")
	if got := roomSession.Cursor(); got != messaging.StartCursor {
		t.Errorf("Cursor = %q, failed poll must not advance it", got)
	}

	// The retry happens only after the backoff, from the same cursor.
	fakeClock.BlockUntil(1)
	fakeClock.Advance(time.Second)
	if got := <-fake.pollCursors; got != messaging.StartCursor {
		t.Errorf("retry cursor = %q, want %s", got, messaging.StartCursor)
	}
}
