// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package roomview

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/messaging"
)

// ProfileSource fetches profile metadata for member enrichment.
// *messaging.Session satisfies it.
type ProfileSource interface {
	GetDisplayName(ctx context.Context, userID ref.UserID) (string, error)
	GetAvatarURL(ctx context.Context, userID ref.UserID) (string, error)
}

// PresenceUnknown is the presence shown for a member whose presence
// has never been reported.
const PresenceUnknown = "unknown"

// MemberEntry is one row of a room's member table. The user ID is
// fixed at insert; everything else is updated in place as events
// arrive. Entries are never removed.
type MemberEntry struct {
	UserID      ref.UserID
	Membership  string
	DisplayName string
	AvatarURL   string
	// Presence is "online", "offline", or PresenceUnknown. Presence
	// codes without a settled meaning leave it untouched.
	Presence string
}

// View reconciles the event stream into the current state of one
// room. Safe for concurrent use: the poll loop applies batches while
// readers take snapshots.
type View struct {
	roomID   ref.RoomID
	profiles ProfileSource
	logger   *slog.Logger
	observer func(event messaging.Event)

	mu       sync.Mutex
	members  map[ref.UserID]*MemberEntry
	messages []messaging.Event
	feedback string
}

// NewView creates an empty view of the given room. profiles may be
// nil, in which case new members are not enriched (their display name
// and avatar stay empty).
func NewView(roomID ref.RoomID, profiles ProfileSource, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{
		roomID:   roomID,
		profiles: profiles,
		logger:   logger,
		members:  make(map[ref.UserID]*MemberEntry),
	}
}

// Observe registers a callback invoked with every event this view
// reconciles (events filtered out for belonging to another room never
// reach it). Call before the view starts receiving events; there is
// no synchronization with a concurrent Apply.
func (v *View) Observe(observer func(event messaging.Event)) {
	v.observer = observer
}

// RoomID returns the room this view reconciles.
func (v *View) RoomID() ref.RoomID {
	return v.roomID
}

// Apply digests one batch of events, in order. Events for other rooms
// are ignored; presence events carry no room ID and always pass the
// filter. Unknown event types are skipped silently — new server event
// types must not break old clients.
//
// Profile fetches for members first seen in this batch run after the
// whole batch has been applied, so a later event in the same batch
// (a leave, a second join) settles before any fetched metadata merges.
func (v *View) Apply(ctx context.Context, events []messaging.Event) {
	v.mu.Lock()
	var newcomers []ref.UserID
	var applied []messaging.Event
	for _, event := range events {
		switch event.Type {
		case messaging.EventTypeMessage:
			if event.RoomID != v.roomID {
				continue
			}
			v.messages = append(v.messages, event)
		case messaging.EventTypeMember:
			if event.RoomID != v.roomID {
				continue
			}
			if v.applyMembership(event) {
				newcomers = append(newcomers, event.TargetUserID)
			}
		case messaging.EventTypePresence:
			v.applyPresence(event)
		default:
			continue
		}
		applied = append(applied, event)
	}
	v.mu.Unlock()

	for _, userID := range newcomers {
		v.enrich(ctx, userID)
	}
	if v.observer != nil {
		for _, event := range applied {
			v.observer(event)
		}
	}
}

// applyMembership reconciles one member event. Returns true when the
// event introduced a new member (caller queues enrichment). Must hold
// v.mu.
func (v *View) applyMembership(event messaging.Event) bool {
	target := event.TargetUserID
	if target.IsZero() {
		v.logger.Warn("member event without target user", "room_id", v.roomID)
		return false
	}

	if entry, exists := v.members[target]; exists {
		entry.Membership = event.Membership()
		return false
	}

	v.members[target] = &MemberEntry{
		UserID:     target,
		Membership: event.Membership(),
		Presence:   PresenceUnknown,
	}
	return true
}

// applyPresence reconciles one presence event. Presence is global to
// the session stream, so the subject may not be in this room: that is
// an anomaly only when the event names nobody we know. Must hold v.mu.
func (v *View) applyPresence(event messaging.Event) {
	subject := event.PresenceSubject()
	if subject.IsZero() {
		v.logger.Warn("presence event without subject")
		return
	}
	entry, exists := v.members[subject]
	if !exists {
		v.logger.Warn("presence for unknown member", "user_id", subject, "room_id", v.roomID)
		return
	}

	state, ok := event.PresenceState()
	if !ok {
		return
	}
	switch state {
	case messaging.PresenceOnline:
		entry.Presence = "online"
	case messaging.PresenceOffline:
		entry.Presence = "offline"
	default:
		// Undefined code: keep whatever we had.
	}
}

// enrich fetches profile metadata for a newly seen member and merges
// it into their entry. Failures are logged and dropped — a member row
// without a display name is still useful. The merge checks the entry
// still exists; it always does today (entries are never removed), but
// the guard keeps enrichment correct if that ever changes.
func (v *View) enrich(ctx context.Context, userID ref.UserID) {
	if v.profiles == nil {
		return
	}

	displayName, err := v.profiles.GetDisplayName(ctx, userID)
	if err != nil {
		v.logger.Debug("display name fetch failed", "user_id", userID, "error", err)
	}
	avatarURL, err := v.profiles.GetAvatarURL(ctx, userID)
	if err != nil {
		v.logger.Debug("avatar fetch failed", "user_id", userID, "error", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	entry, exists := v.members[userID]
	if !exists {
		return
	}
	if displayName != "" {
		entry.DisplayName = displayName
	}
	if avatarURL != "" {
		entry.AvatarURL = avatarURL
	}
}

// Members returns a snapshot of the member table, sorted by user ID.
func (v *View) Members() []MemberEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	snapshot := make([]MemberEntry, 0, len(v.members))
	for _, entry := range v.members {
		snapshot = append(snapshot, *entry)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].UserID.String() < snapshot[j].UserID.String()
	})
	return snapshot
}

// Member returns a snapshot of one member's entry.
func (v *View) Member(userID ref.UserID) (MemberEntry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, exists := v.members[userID]
	if !exists {
		return MemberEntry{}, false
	}
	return *entry, true
}

// Messages returns a snapshot of the message list, in arrival order.
func (v *View) Messages() []messaging.Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	snapshot := make([]messaging.Event, len(v.messages))
	copy(snapshot, v.messages)
	return snapshot
}

// Feedback returns the current user-facing status line: the reason
// for the most recent stream failure, or "" when the stream is
// healthy.
func (v *View) Feedback() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.feedback
}

func (v *View) setFeedback(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.feedback = message
}
