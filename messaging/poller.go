// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hearth-chat/hearth/lib/clock"
)

// StartCursor is the stream position naming the beginning of the
// event stream. A poller starting here receives the server's recent
// event backlog in its first response.
const StartCursor = "START"

const (
	// defaultPollTimeout is the server-side long-poll hold in
	// milliseconds. The server returns early as soon as events arrive.
	defaultPollTimeout = 25000

	// pollRetryDelay is the fixed client-side delay before retrying
	// after a failed poll. Long-poll pacing is otherwise the server's
	// job; this only keeps a hard-down server from being hammered.
	pollRetryDelay = 1000 * time.Millisecond
)

// EventHandler is called with each batch of events from the stream,
// in stream order. The next poll starts after the handler returns, so
// handlers should not block for extended periods.
type EventHandler func(ctx context.Context, events []Event)

// StreamPoller drives the GET /events long-poll loop for a session.
// It owns the stream cursor: the cursor advances only when a poll
// succeeds, so a failed poll is retried from the same position and no
// events are skipped.
//
// The stream is global to the session — it carries events from every
// joined room plus presence. Callers that care about a single room
// filter by Event.RoomID.
type StreamPoller struct {
	session     *Session
	clock       clock.Clock
	onPollError func(err error)
	logger      *slog.Logger

	// mu guards cursor: advanced by Run, read by Cursor from other
	// goroutines.
	mu     sync.Mutex
	cursor string
}

// PollerConfig configures a StreamPoller. Zero values select
// defaults: cursor StartCursor, the real clock, slog.Default().
type PollerConfig struct {
	// Cursor is the stream position to resume from, typically the
	// End token of a previous session's last successful poll.
	Cursor string

	// Clock injects time for tests. Nil uses the real clock.
	Clock clock.Clock

	// OnPollError, when non-nil, is called with each poll failure
	// before the retry delay. Lets a consumer surface stream trouble
	// (user feedback) without parsing log output.
	OnPollError func(err error)

	Logger *slog.Logger
}

// NewStreamPoller creates a poller for the session's event stream.
func NewStreamPoller(session *Session, config PollerConfig) *StreamPoller {
	cursor := config.Cursor
	if cursor == "" {
		cursor = StartCursor
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamPoller{
		session:     session,
		cursor:      cursor,
		clock:       clk,
		onPollError: config.OnPollError,
		logger:      logger,
	}
}

// Cursor returns the current stream position: the End token of the
// last successful poll, or the initial cursor when none has succeeded
// yet. Persist this to resume the stream across restarts.
func (p *StreamPoller) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

func (p *StreamPoller) setCursor(cursor string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = cursor
}

// Run polls the event stream until ctx is cancelled. Each successful
// poll advances the cursor to the response's End token, delivers the
// chunk to handler, and re-polls immediately. A failed poll leaves
// the cursor where it was and retries after a fixed delay.
//
// Run returns only on context cancellation; ctx is the caller's
// handle for stopping the stream.
func (p *StreamPoller) Run(ctx context.Context, handler EventHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cursor := p.Cursor()
		response, err := p.session.PollEvents(ctx, cursor, defaultPollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("event poll failed, retrying",
				"cursor", cursor,
				"error", err,
			)
			if p.onPollError != nil {
				p.onPollError(err)
			}
			select {
			case <-ctx.Done():
				return
			case <-p.clock.After(pollRetryDelay):
			}
			continue
		}

		p.setCursor(response.End)
		if len(response.Chunk) > 0 {
			p.logger.Debug("event batch received",
				"count", len(response.Chunk),
				"end", response.End,
			)
		}
		handler(ctx, response.Chunk)
	}
}
