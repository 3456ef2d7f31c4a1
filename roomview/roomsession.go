// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package roomview

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hearth-chat/hearth/lib/clock"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/messaging"
)

// RoomSession is a live presence in one room: a View kept current by
// the event stream. Open joins the room, seeds the member table, and
// starts following the stream; Close stops the stream.
type RoomSession struct {
	session *messaging.Session
	view    *View
	poller  *messaging.StreamPoller

	cancel context.CancelFunc
	done   chan struct{}
}

// RoomSessionConfig tunes a RoomSession. The zero value is the
// production configuration.
type RoomSessionConfig struct {
	// Cursor resumes the event stream from a saved position. Empty
	// starts from the beginning of the stream, which replays the
	// server's recent backlog into the view.
	Cursor string

	// Clock injects time for tests. Nil uses the real clock.
	Clock clock.Clock

	// OnEvent, when non-nil, is called with every stream event
	// reconciled into the view. Seed member events are not reported;
	// read the seeded roster from the View. For live output (the
	// watch command); the View remains the queryable state.
	OnEvent func(event messaging.Event)

	Logger *slog.Logger
}

// Open joins roomID and returns a running RoomSession. The member
// table is seeded from the room's member list before the stream
// starts, so the view is populated even before the first poll
// returns. ctx bounds the join and seed calls and the stream itself:
// cancelling it stops the session.
//
// The caller must call Close when done.
func Open(ctx context.Context, session *messaging.Session, roomID ref.RoomID, config RoomSessionConfig) (*RoomSession, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := session.JoinRoom(ctx, roomID); err != nil {
		return nil, fmt.Errorf("roomview: opening %q: %w", roomID, err)
	}

	view := NewView(roomID, session, logger)

	// The member list entries are member events, so seeding runs
	// through the same reconciliation (and enrichment) as live events.
	seed, err := session.MemberList(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("roomview: seeding member table for %q: %w", roomID, err)
	}
	view.Apply(ctx, seed)

	// The observer attaches after seeding: it sees live stream events
	// only, while the seeded roster is read from the View.
	if config.OnEvent != nil {
		view.Observe(config.OnEvent)
	}

	poller := messaging.NewStreamPoller(session, messaging.PollerConfig{
		Cursor: config.Cursor,
		Clock:  config.Clock,
		Logger: logger,
		OnPollError: func(err error) {
			view.setFeedback(messaging.FeedbackReason(err))
		},
	})

	streamCtx, cancel := context.WithCancel(ctx)
	roomSession := &RoomSession{
		session: session,
		view:    view,
		poller:  poller,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(roomSession.done)
		poller.Run(streamCtx, func(ctx context.Context, events []messaging.Event) {
			view.setFeedback("")
			view.Apply(ctx, events)
		})
	}()

	logger.Info("room session opened", "room_id", roomID, "seed_members", len(seed))
	return roomSession, nil
}

// View returns the live view of the room.
func (r *RoomSession) View() *View {
	return r.view
}

// Cursor returns the current event stream position. Persist it to
// resume the stream without replaying.
func (r *RoomSession) Cursor() string {
	return r.poller.Cursor()
}

// Send sends a text message to the room.
func (r *RoomSession) Send(ctx context.Context, body string) (ref.MsgID, error) {
	return r.session.SendMessage(ctx, r.view.RoomID(), body)
}

// Close stops the event stream and waits for the poll loop to exit.
// It does not leave the room or close the underlying Session.
func (r *RoomSession) Close() {
	r.cancel()
	<-r.done
}
