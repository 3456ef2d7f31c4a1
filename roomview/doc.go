// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package roomview maintains live room state from the home-server
// event stream.
//
// A [View] is the reconciler: it digests batches of events into a
// member table (membership, presence, profile metadata), an ordered
// message list, and a user-facing feedback string. A [RoomSession]
// wires a View to a running [messaging.StreamPoller] for one room:
// join, seed the member table, then follow the stream until closed.
//
// Member entries are never removed, only updated in place. A member
// who leaves keeps their entry with membership "leave" — the original
// prototype UI greys departed members out rather than dropping them,
// and pending profile fetches merge into the same entry.
package roomview
