// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hearth-chat/hearth/lib/netutil"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/lib/secret"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the home-server (e.g., "http://localhost:8080").
	HomeserverURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is an unauthenticated home-server client. It holds the server
// URL and HTTP transport, shared across Sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new unauthenticated home-server client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL is required")
	}

	// Validate the URL structure. We store the string form (with the
	// trailing slash stripped) and build request URLs by direct
	// concatenation: room and message IDs are path-escaped per segment
	// at the call sites, and url.URL.String() would re-encode them.
	if _, err := url.Parse(config.HomeserverURL); err != nil {
		return nil, fmt.Errorf("messaging: invalid HomeserverURL %q: %w", config.HomeserverURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.HomeserverURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. Call this after a network disruption to
// force subsequent requests onto fresh TCP connections instead of a
// poisoned pooled one.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Register creates a new account via POST /register. desiredUserID is
// the requested localpart; empty lets the server pick one. Returns a
// Session for the new account.
//
// The caller must call Close on the returned Session when done.
func (c *Client) Register(ctx context.Context, desiredUserID string) (*Session, error) {
	requestBody := map[string]any{}
	if desiredUserID != "" {
		// The server rejects localparts that need URL encoding; catch
		// it client-side for a clearer error.
		if url.QueryEscape(desiredUserID) != desiredUserID {
			return nil, fmt.Errorf("messaging: user ID %q contains characters that require URL encoding", desiredUserID)
		}
		requestBody["user_id"] = desiredUserID
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/register", nil, nil, requestBody)
	if err != nil {
		return nil, fmt.Errorf("messaging: registration failed: %w", err)
	}

	var response RegisterResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse register response: %w", err)
	}

	c.logger.Info("registered account", "user_id", response.UserID)

	return c.SessionFromToken(response.UserID, response.AccessToken)
}

// SessionFromToken creates a Session from an existing access token
// string. The token is moved into mmap-backed memory (locked against
// swap, excluded from core dumps). This does NOT validate the token —
// the first API call will fail if it is invalid; ListRooms is the
// conventional probe.
//
// The caller must call Close on the returned Session when done.
func (c *Client) SessionFromToken(userID ref.UserID, accessToken string) (*Session, error) {
	if userID.IsZero() {
		return nil, fmt.Errorf("messaging: user ID is required for a session")
	}
	tokenBuffer, err := secret.NewFromString(accessToken)
	if err != nil {
		return nil, fmt.Errorf("messaging: protecting access token: %w", err)
	}
	return &Session{
		client:      c,
		accessToken: tokenBuffer,
		userID:      userID,
	}, nil
}

// PublicRooms returns the server's public room directory via
// GET /public/rooms. No authentication is required.
func (c *Client) PublicRooms(ctx context.Context) ([]RoomInfo, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/public/rooms", nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: public rooms failed: %w", err)
	}

	var response RoomListResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse public rooms response: %w", err)
	}
	return response.Chunk, nil
}

// doRequest performs an HTTP request against the home-server and
// returns the response body. On 2xx, returns the body. On other
// statuses, returns a *APIError whose Reason is the server's "error"
// field, or the verbatim body when that field is absent.
//
// accessToken may be nil for unauthenticated endpoints; when present
// it is attached as the access_token query parameter — this API
// generation predates the Authorization header.
func (c *Client) doRequest(ctx context.Context, method, path string, accessToken *secret.Buffer, query url.Values, requestBody any) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if accessToken != nil {
		query.Set("access_token", accessToken.String())
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to create request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("messaging: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	return responseBody, normalizeError(response.StatusCode, responseBody)
}

// normalizeError turns a non-2xx response into a *APIError. The server
// reports application errors as {"error": reason, "errcode": code};
// anything else (proxy pages, empty bodies) is carried verbatim as the
// reason so the user still sees something actionable.
func normalizeError(statusCode int, body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Reason != "" {
		apiErr.StatusCode = statusCode
		return &apiErr
	}
	return &APIError{
		Reason:     string(body),
		StatusCode: statusCode,
	}
}
