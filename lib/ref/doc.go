// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references
// for the home-server chat API: user IDs, room IDs, and message IDs.
//
// All constructors validate their inputs and return errors for invalid
// identifiers. Once constructed, a ref is immutable — accessor methods
// return the canonical string form. The zero value of every ref type is
// invalid; use IsZero to check.
//
// JSON marshaling uses the canonical string form via
// encoding.TextMarshaler, so refs can appear directly in request and
// response structs. An empty input unmarshals to the zero value rather
// than an error, because the server omits optional ID fields.
//
// This package depends on no other hearth packages.
package ref
