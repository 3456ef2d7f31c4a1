// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// MsgID is a client-generated message identifier. The sending client
// picks the ID (the wire path is /rooms/{room}/messages/{sender}/{msg});
// the server treats it as opaque. Hearth generates IDs of the form
// "m<unix-ms>-<counter>" but accepts any path-safe token from the
// stream, since other clients use their own schemes.
//
// MsgID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type MsgID struct {
	id string
}

// ParseMsgID validates and wraps a raw message ID string. Returns an
// error if the string is empty or contains '/', '?', '#', or
// whitespace.
func ParseMsgID(raw string) (MsgID, error) {
	if raw == "" {
		return MsgID{}, fmt.Errorf("empty message ID")
	}
	if index := strings.IndexAny(raw, "/?# \t\r\n"); index >= 0 {
		return MsgID{}, fmt.Errorf("message ID contains forbidden character %q: %q", raw[index], raw)
	}
	return MsgID{id: raw}, nil
}

// MustParseMsgID is like ParseMsgID but panics on error. Use in tests
// and static initialization where the input is known-valid.
func MustParseMsgID(raw string) MsgID {
	m, err := ParseMsgID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseMsgID(%q): %v", raw, err))
	}
	return m
}

// String returns the message ID token.
func (m MsgID) String() string { return m.id }

// IsZero reports whether the MsgID is the zero value (uninitialized).
func (m MsgID) IsZero() bool { return m.id == "" }

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (m MsgID) MarshalText() ([]byte, error) {
	if m.id == "" {
		return []byte{}, nil
	}
	return []byte(m.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the
// message ID format. An empty input produces the zero value (unset).
func (m *MsgID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*m = MsgID{}
		return nil
	}
	parsed, err := ParseMsgID(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
