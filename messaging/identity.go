// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hearth-chat/hearth/lib/netutil"
)

// IdentityClient talks to an identity server, which vouches for
// third-party identifiers (email addresses) bound to user IDs. The
// validation flow is two steps: requestToken sends a confirmation
// email; submitToken proves the user received it.
//
// The identity API is form-encoded, unlike the home-server API.
type IdentityClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// IdentityClientConfig configures an IdentityClient.
type IdentityClientConfig struct {
	// ServerURL is the identity server base URL,
	// e.g. "https://id.example.com".
	ServerURL string

	// HTTPClient is the HTTP client for requests. Nil uses
	// http.DefaultClient.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// NewIdentityClient creates a client for the given identity server.
func NewIdentityClient(config IdentityClientConfig) (*IdentityClient, error) {
	parsed, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("messaging: invalid identity server URL %q: %w", config.ServerURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("messaging: identity server URL %q must use http or https", config.ServerURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &IdentityClient{
		baseURL:    strings.TrimRight(config.ServerURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// EmailTokenResponse is the identity server's reply to a validation
// request. The session ID identifies the pending validation when
// submitting the emailed token.
type EmailTokenResponse struct {
	Success bool   `json:"success"`
	SID     string `json:"sid"`
}

// RequestEmailToken starts email validation: the identity server
// sends a token to the address. clientSecret binds the two steps of
// the flow and must be resent on submit; sendAttempt starts at 1 and
// increments to force a re-send of the email.
func (c *IdentityClient) RequestEmailToken(ctx context.Context, clientSecret, email string, sendAttempt int) (*EmailTokenResponse, error) {
	form := url.Values{}
	form.Set("clientSecret", clientSecret)
	form.Set("email", email)
	form.Set("sendAttempt", strconv.Itoa(sendAttempt))

	var response EmailTokenResponse
	if err := c.postForm(ctx, "/matrix/identity/api/v1/validate/email/requestToken", form, &response); err != nil {
		return nil, fmt.Errorf("messaging: email token request failed: %w", err)
	}
	c.logger.Info("requested email validation token", "sid", response.SID)
	return &response, nil
}

// SubmitEmailTokenResponse reports whether the submitted token was
// accepted.
type SubmitEmailTokenResponse struct {
	Success bool `json:"success"`
}

// SubmitEmailToken completes email validation by submitting the token
// the user received. sid and clientSecret must match the earlier
// RequestEmailToken call.
func (c *IdentityClient) SubmitEmailToken(ctx context.Context, sid, clientSecret, token string) (*SubmitEmailTokenResponse, error) {
	form := url.Values{}
	form.Set("sid", sid)
	form.Set("clientSecret", clientSecret)
	form.Set("token", token)

	var response SubmitEmailTokenResponse
	if err := c.postForm(ctx, "/matrix/identity/api/v1/validate/email/submitToken", form, &response); err != nil {
		return nil, fmt.Errorf("messaging: email token submit failed: %w", err)
	}
	return &response, nil
}

func (c *IdentityClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return err
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return normalizeError(response.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
