// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseUserID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		user, err := ParseUserID("@alice:example.com")
		if err != nil {
			t.Fatalf("ParseUserID failed: %v", err)
		}
		if user.String() != "@alice:example.com" {
			t.Errorf("unexpected string form: %s", user)
		}
		if user.Localpart() != "alice" {
			t.Errorf("unexpected localpart: %s", user.Localpart())
		}
		if user.Server() != "example.com" {
			t.Errorf("unexpected server: %s", user.Server())
		}
		if user.IsZero() {
			t.Error("parsed user ID should not be zero")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, raw := range []string{
			"",
			"alice",
			"alice:example.com",
			"@alice",
			"@:example.com",
			"@alice:",
		} {
			if _, err := ParseUserID(raw); err == nil {
				t.Errorf("ParseUserID(%q) should fail", raw)
			}
		}
	})

	t.Run("zero value", func(t *testing.T) {
		var user UserID
		if !user.IsZero() {
			t.Error("zero UserID should report IsZero")
		}
	})
}

func TestParseRoomID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for _, raw := range []string{"room_beta", "lobby", "a"} {
			room, err := ParseRoomID(raw)
			if err != nil {
				t.Fatalf("ParseRoomID(%q) failed: %v", raw, err)
			}
			if room.String() != raw {
				t.Errorf("unexpected string form: %s", room)
			}
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, raw := range []string{"", "a/b", "a b", "a?b", "a#b", "a\nb"} {
			if _, err := ParseRoomID(raw); err == nil {
				t.Errorf("ParseRoomID(%q) should fail", raw)
			}
		}
	})
}

func TestParseMsgID(t *testing.T) {
	if _, err := ParseMsgID("m1700000000000-1"); err != nil {
		t.Fatalf("ParseMsgID failed: %v", err)
	}
	for _, raw := range []string{"", "m1/2", "m 1"} {
		if _, err := ParseMsgID(raw); err == nil {
			t.Errorf("ParseMsgID(%q) should fail", raw)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type record struct {
		User UserID `json:"user_id"`
		Room RoomID `json:"room_id,omitempty"`
	}

	t.Run("populated", func(t *testing.T) {
		input := `{"user_id":"@bob:local","room_id":"room_beta"}`
		var decoded record
		if err := json.Unmarshal([]byte(input), &decoded); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if decoded.User.String() != "@bob:local" {
			t.Errorf("unexpected user: %s", decoded.User)
		}
		if decoded.Room.String() != "room_beta" {
			t.Errorf("unexpected room: %s", decoded.Room)
		}

		encoded, err := json.Marshal(decoded)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(encoded) != input {
			t.Errorf("round trip mismatch: %s", encoded)
		}
	})

	t.Run("empty field unmarshals to zero", func(t *testing.T) {
		var decoded record
		if err := json.Unmarshal([]byte(`{"user_id":""}`), &decoded); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !decoded.User.IsZero() {
			t.Error("empty user_id should produce zero value")
		}
	})

	t.Run("invalid field rejected", func(t *testing.T) {
		var decoded record
		if err := json.Unmarshal([]byte(`{"user_id":"not-a-user"}`), &decoded); err == nil {
			t.Error("invalid user_id should fail to unmarshal")
		}
	})
}
