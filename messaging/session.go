// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/lib/secret"
)

// Session is an authenticated home-server session. It wraps a Client
// with an access token for making authenticated API calls. Sessions
// are lightweight and safe to create in large numbers.
//
// The access token is stored in a secret.Buffer (mmap-backed, locked
// against swap, excluded from core dumps). The caller must call Close
// when the Session is no longer needed.
type Session struct {
	client      *Client
	accessToken *secret.Buffer
	userID      ref.UserID

	// msgCounter disambiguates message IDs generated within the same
	// millisecond.
	msgCounter atomic.Int64
}

// UserID returns the session's user ID (e.g., "@alice:example.com").
func (s *Session) UserID() ref.UserID {
	return s.userID
}

// AccessToken returns the access token as a heap string. This creates
// a brief copy from the mmap-backed buffer — use only at persistence
// or API boundaries that require a string.
func (s *Session) AccessToken() string {
	return s.accessToken.String()
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. Call after a poll error to force the
// next request onto a fresh TCP connection.
func (s *Session) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// Close releases the access token memory (zeros, unlocks, unmaps).
// Idempotent — safe to call multiple times.
func (s *Session) Close() error {
	if s.accessToken != nil {
		return s.accessToken.Close()
	}
	return nil
}

// CreateRoom creates a room with the caller-chosen ID via
// PUT /rooms/{room_id}. Visibility is "public" or "private"; empty
// defaults to public on the server. Returns the room ID the server
// actually assigned, which may differ from the requested one.
func (s *Session) CreateRoom(ctx context.Context, roomID ref.RoomID, visibility string) (ref.RoomID, error) {
	path := "/rooms/" + url.PathEscape(roomID.String())
	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, nil, CreateRoomRequest{
		Visibility: visibility,
	})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: create room %q failed: %w", roomID, err)
	}

	var response CreateRoomResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: failed to parse create room response: %w", err)
	}

	s.client.logger.Info("created room", "room_id", response.RoomID, "visibility", visibility)
	return response.RoomID, nil
}

// ListRooms returns the rooms the user has joined or been invited to,
// via GET /users/{user_id}/rooms/list. Also the conventional probe for
// whether a stored access token is still valid.
func (s *Session) ListRooms(ctx context.Context) ([]RoomInfo, error) {
	path := "/users/" + url.PathEscape(s.userID.String()) + "/rooms/list"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: list rooms failed: %w", err)
	}

	var response RoomListResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse room list response: %w", err)
	}
	return response.Chunk, nil
}

// JoinRoom joins a room by writing the session user's own membership
// state: PUT /rooms/{room_id}/members/{user_id}/state with
// membership "join".
func (s *Session) JoinRoom(ctx context.Context, roomID ref.RoomID) error {
	if err := s.putMembership(ctx, roomID, s.userID, MembershipJoin); err != nil {
		return fmt.Errorf("messaging: join room %q failed: %w", roomID, err)
	}
	return nil
}

// InviteUser invites another user by writing that user's membership
// state: PUT /rooms/{room_id}/members/{target}/state with
// membership "invite".
func (s *Session) InviteUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error {
	if err := s.putMembership(ctx, roomID, userID, MembershipInvite); err != nil {
		return fmt.Errorf("messaging: invite %q to %q failed: %w", userID, roomID, err)
	}
	return nil
}

// LeaveRoom leaves a room via DELETE on the session user's own
// membership state.
func (s *Session) LeaveRoom(ctx context.Context, roomID ref.RoomID) error {
	path := membershipPath(roomID, s.userID)
	if _, err := s.client.doRequest(ctx, http.MethodDelete, path, s.accessToken, nil, nil); err != nil {
		return fmt.Errorf("messaging: leave room %q failed: %w", roomID, err)
	}
	return nil
}

func (s *Session) putMembership(ctx context.Context, roomID ref.RoomID, userID ref.UserID, membership string) error {
	path := membershipPath(roomID, userID)
	_, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, nil, MembershipRequest{
		Membership: membership,
	})
	return err
}

func membershipPath(roomID ref.RoomID, userID ref.UserID) string {
	return fmt.Sprintf("/rooms/%s/members/%s/state",
		url.PathEscape(roomID.String()),
		url.PathEscape(userID.String()),
	)
}

// GetMember fetches a user's current membership state in a room via
// GET /rooms/{room_id}/members/{user_id}/state. Returns the raw
// content ({"membership": ...}).
func (s *Session) GetMember(ctx context.Context, roomID ref.RoomID, userID ref.UserID) (json.RawMessage, error) {
	path := membershipPath(roomID, userID)
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get member %q in %q failed: %w", userID, roomID, err)
	}
	return json.RawMessage(body), nil
}

// MemberList returns the room's current members via
// GET /rooms/{room_id}/members/list. Entries are sy.room.member
// events, the same shape the /events stream delivers, so they can be
// fed straight into a room state reconciler.
func (s *Session) MemberList(ctx context.Context, roomID ref.RoomID) ([]Event, error) {
	path := "/rooms/" + url.PathEscape(roomID.String()) + "/members/list"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: member list for %q failed: %w", roomID, err)
	}

	var response MemberListResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse member list response: %w", err)
	}
	return response.Chunk, nil
}

// SendMessage sends a text message via
// PUT /rooms/{room_id}/messages/{user_id}/{msg_id}. The message ID is
// generated client-side; the returned ID identifies the message on the
// event stream.
func (s *Session) SendMessage(ctx context.Context, roomID ref.RoomID, body string) (ref.MsgID, error) {
	return s.SendContent(ctx, roomID, NewTextMessage(body))
}

// SendContent sends message content with an explicit msgtype.
func (s *Session) SendContent(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.MsgID, error) {
	msgID := s.nextMsgID()
	path := fmt.Sprintf("/rooms/%s/messages/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(s.userID.String()),
		url.PathEscape(msgID.String()),
	)

	if _, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, nil, content); err != nil {
		return ref.MsgID{}, fmt.Errorf("messaging: send message to %q failed: %w", roomID, err)
	}
	return msgID, nil
}

// GetMessage fetches a single message by sender and message ID.
func (s *Session) GetMessage(ctx context.Context, roomID ref.RoomID, senderID ref.UserID, msgID ref.MsgID) (*MessageContent, error) {
	path := fmt.Sprintf("/rooms/%s/messages/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(senderID.String()),
		url.PathEscape(msgID.String()),
	)

	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get message %q in %q failed: %w", msgID, roomID, err)
	}

	var content MessageContent
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse message response: %w", err)
	}
	return &content, nil
}

// GetDisplayName fetches a user's display name from their profile.
func (s *Session) GetDisplayName(ctx context.Context, userID ref.UserID) (string, error) {
	path := "/profile/" + url.PathEscape(userID.String()) + "/displayname"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: get display name for %q failed: %w", userID, err)
	}

	var response DisplayNameResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse display name response: %w", err)
	}
	return response.DisplayName, nil
}

// SetDisplayName updates the session user's display name.
func (s *Session) SetDisplayName(ctx context.Context, displayName string) error {
	path := "/profile/" + url.PathEscape(s.userID.String()) + "/displayname"
	_, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, nil, DisplayNameResponse{
		DisplayName: displayName,
	})
	if err != nil {
		return fmt.Errorf("messaging: set display name failed: %w", err)
	}
	return nil
}

// GetAvatarURL fetches a user's profile picture URL.
func (s *Session) GetAvatarURL(ctx context.Context, userID ref.UserID) (string, error) {
	path := "/profile/" + url.PathEscape(userID.String()) + "/avatar_url"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: get avatar URL for %q failed: %w", userID, err)
	}

	var response AvatarURLResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse avatar URL response: %w", err)
	}
	return response.AvatarURL, nil
}

// SetAvatarURL updates the session user's profile picture URL.
func (s *Session) SetAvatarURL(ctx context.Context, avatarURL string) error {
	path := "/profile/" + url.PathEscape(s.userID.String()) + "/avatar_url"
	_, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, nil, AvatarURLResponse{
		AvatarURL: avatarURL,
	})
	if err != nil {
		return fmt.Errorf("messaging: set avatar URL failed: %w", err)
	}
	return nil
}

// GetPresence fetches a user's presence status.
func (s *Session) GetPresence(ctx context.Context, userID ref.UserID) (*PresenceStatus, error) {
	path := "/presence/" + url.PathEscape(userID.String()) + "/status"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get presence for %q failed: %w", userID, err)
	}

	var status PresenceStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse presence response: %w", err)
	}
	return &status, nil
}

// SetPresence updates the session user's presence status.
func (s *Session) SetPresence(ctx context.Context, status PresenceStatus) error {
	path := "/presence/" + url.PathEscape(s.userID.String()) + "/status"
	if _, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, nil, status); err != nil {
		return fmt.Errorf("messaging: set presence failed: %w", err)
	}
	return nil
}

// GetTopic fetches a room's topic. Returns "" when none is set.
func (s *Session) GetTopic(ctx context.Context, roomID ref.RoomID) (string, error) {
	path := "/rooms/" + url.PathEscape(roomID.String()) + "/topic"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: get topic for %q failed: %w", roomID, err)
	}

	var content TopicContent
	if err := json.Unmarshal(body, &content); err != nil {
		return "", fmt.Errorf("messaging: failed to parse topic response: %w", err)
	}
	return content.Topic, nil
}

// SetTopic updates a room's topic.
func (s *Session) SetTopic(ctx context.Context, roomID ref.RoomID, topic string) error {
	path := "/rooms/" + url.PathEscape(roomID.String()) + "/topic"
	if _, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, nil, TopicContent{Topic: topic}); err != nil {
		return fmt.Errorf("messaging: set topic for %q failed: %w", roomID, err)
	}
	return nil
}

// PollEvents fetches the next batch from the global event stream via
// GET /events. from is an opaque cursor ("START" for the beginning of
// the stream); timeout is the server-side long-poll hold in
// milliseconds — the server returns early when events arrive.
//
// This is the raw primitive; most callers want [StreamPoller], which
// owns cursor advancement and retry.
func (s *Session) PollEvents(ctx context.Context, from string, timeoutMS int) (*PollResponse, error) {
	query := url.Values{}
	query.Set("from", from)
	query.Set("timeout", strconv.Itoa(timeoutMS))

	body, err := s.client.doRequest(ctx, http.MethodGet, "/events", s.accessToken, query, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: event poll from %q failed: %w", from, err)
	}

	var response PollResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse event poll response: %w", err)
	}
	return &response, nil
}

// nextMsgID generates a unique client-side message ID.
// Format: "m<unix-ms>-<counter>", unique across restarts within one
// millisecond of clock resolution.
func (s *Session) nextMsgID() ref.MsgID {
	counter := s.msgCounter.Add(1)
	return ref.MustParseMsgID(fmt.Sprintf("m%d-%d", time.Now().UnixMilli(), counter))
}
