// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the prototype home-server chat API: rooms,
// messages, membership, presence, profiles, and the long-poll /events
// stream.
//
// The package provides two core types. [Client] is an unauthenticated
// client that handles registration, returning authenticated [Session]
// values. Client holds the home-server URL and HTTP transport, shared
// across all Sessions derived from it.
//
// [Session] wraps a Client with an access token for authenticated
// operations: room management (create, join, leave, invite), messaging
// (send and fetch individual messages), member lists, profile fields
// (display name, avatar URL), presence status, room topics, and the
// /events long-poll stream. In this API generation the access token
// travels as the access_token query parameter on every request — there
// is no Authorization header.
//
// [StreamPoller] consumes the /events stream: it long-polls from an
// opaque cursor (starting at [StartCursor]), hands each batch to a
// handler, and immediately re-polls from the batch's end cursor. A
// failed poll retries from the same cursor after a fixed delay. See
// the poller documentation for the exact loop semantics.
//
// Server-reported failures are returned as [*APIError] carrying the
// server's human-readable reason. When an error response body lacks
// the structured "error" field, the verbatim body becomes the reason.
// [FeedbackReason] extracts the string a user interface should show.
//
// Sessions are lightweight (a pointer to the parent Client plus an
// access token in mmap-backed secret.Buffer memory) and safe to create
// in large numbers. Callers must call Session.Close to release the
// protected token memory.
package messaging
