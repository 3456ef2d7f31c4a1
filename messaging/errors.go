// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
)

// APIError represents an error response from the home-server. Callers
// can use errors.As to extract the structured information:
//
//	var apiErr *messaging.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.StatusCode == http.StatusForbidden { ... }
//	}
type APIError struct {
	// Reason is the human-readable description from the server's
	// "error" field. When the response body has no "error" field,
	// Reason holds the verbatim body instead.
	Reason string `json:"error"`
	// Code is the server's numeric error code ("errcode"). Zero for
	// errors that carry no specific code.
	Code int `json:"errcode"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("homeserver: %d: %s", e.StatusCode, e.Reason)
}

// FeedbackReason returns the string a user interface should display
// for a failed remote call: the server's reason for an APIError, or
// the plain error text for transport failures. Returns "" for nil.
func FeedbackReason(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason
	}
	return err.Error()
}
