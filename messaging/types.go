// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/hearth-chat/hearth/lib/ref"
)

// Event type identifiers used on the /events stream.
const (
	EventTypeMessage  = "sy.room.message"
	EventTypeMember   = "sy.room.member"
	EventTypePresence = "sy.presence"
	EventTypeTopic    = "sy.room.topic"
)

// Membership states carried by sy.room.member events.
const (
	MembershipJoin   = "join"
	MembershipInvite = "invite"
	MembershipLeave  = "leave"
)

// Presence state codes carried by sy.presence event content. The
// server defines more codes than these two, but only online and
// offline have settled meaning; consumers must leave state unchanged
// for anything else.
const (
	PresenceOffline = 0
	PresenceOnline  = 2
)

// MsgTypeText is the msgtype for plain text message content.
const MsgTypeText = "sy.text"

// Event is a single record from the /events stream. Events are
// immutable once received.
//
// The shape is a tagged union on Type: message events carry MsgID and
// Content{body, msgtype}; member events carry TargetUserID and
// Content{membership}; presence events carry Content{user_id, state}
// and no room ID. Fields that don't apply to a type are zero.
type Event struct {
	Type         string         `json:"type"`
	RoomID       ref.RoomID     `json:"room_id,omitempty"`
	UserID       ref.UserID     `json:"user_id,omitempty"`
	TargetUserID ref.UserID     `json:"target_user_id,omitempty"`
	MsgID        ref.MsgID      `json:"msg_id,omitempty"`
	Content      map[string]any `json:"content,omitempty"`
}

// MessageBody returns the text body of a message event, or "" when the
// event is not a message or has no body.
func (e Event) MessageBody() string {
	body, _ := e.Content["body"].(string)
	return body
}

// Membership returns the membership state of a member event, or ""
// when the event carries none.
func (e Event) Membership() string {
	membership, _ := e.Content["membership"].(string)
	return membership
}

// PresenceSubject returns the user a presence event describes, parsed
// from content.user_id. Returns the zero UserID when absent or
// malformed — presence events are advisory, so bad ones are dropped
// rather than failing the batch.
func (e Event) PresenceSubject() ref.UserID {
	raw, _ := e.Content["user_id"].(string)
	user, err := ref.ParseUserID(raw)
	if err != nil {
		return ref.UserID{}
	}
	return user
}

// PresenceState returns the numeric presence code of a presence event.
// The second return is false when the event carries no usable state.
// JSON numbers decode as float64; events constructed in-process carry
// int. Both are accepted.
func (e Event) PresenceState() (int, bool) {
	switch value := e.Content["state"].(type) {
	case float64:
		return int(value), true
	case int:
		return value, true
	default:
		return 0, false
	}
}

// RegisterResponse is returned by POST /register.
type RegisterResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
}

// CreateRoomRequest is the body for PUT /rooms/{room_id}. Visibility
// is "public" or "private"; the server defaults to public when empty.
type CreateRoomRequest struct {
	Visibility string `json:"visibility,omitempty"`
}

// CreateRoomResponse is returned by room creation. The server may
// normalize the requested ID, so callers should use the returned one.
type CreateRoomResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// RoomInfo describes one room in a room-list response.
type RoomInfo struct {
	RoomID     ref.RoomID `json:"room_id"`
	Topic      string     `json:"topic,omitempty"`
	Membership string     `json:"membership,omitempty"`
}

// RoomListResponse is returned by GET /users/{user_id}/rooms/list and
// GET /public/rooms.
type RoomListResponse struct {
	Chunk []RoomInfo `json:"chunk"`
}

// MembershipRequest is the body for PUT
// /rooms/{room_id}/members/{user_id}/state.
type MembershipRequest struct {
	Membership string `json:"membership"`
}

// MessageContent is the body for PUT
// /rooms/{room_id}/messages/{user_id}/{msg_id}.
type MessageContent struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`
}

// NewTextMessage creates plain text message content.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: MsgTypeText, Body: body}
}

// MemberListResponse is returned by GET /rooms/{room_id}/members/list.
// The chunk entries are sy.room.member events, the same shape the
// /events stream delivers.
type MemberListResponse struct {
	Chunk []Event `json:"chunk"`
}

// DisplayNameResponse is the GET/PUT body for
// /profile/{user_id}/displayname.
type DisplayNameResponse struct {
	DisplayName string `json:"displayname"`
}

// AvatarURLResponse is the GET/PUT body for
// /profile/{user_id}/avatar_url.
type AvatarURLResponse struct {
	AvatarURL string `json:"avatar_url"`
}

// PresenceStatus is the GET/PUT body for /presence/{user_id}/status.
type PresenceStatus struct {
	State     int    `json:"state"`
	StatusMsg string `json:"status_msg,omitempty"`
}

// TopicContent is the GET/PUT body for /rooms/{room_id}/topic.
type TopicContent struct {
	Topic string `json:"topic"`
}

// PollResponse is one batch from GET /events. Events in Chunk are in
// stream order. End is the cursor for the next poll.
type PollResponse struct {
	Chunk []Event `json:"chunk"`
	Start string  `json:"start,omitempty"`
	End   string  `json:"end"`
}
