// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/hearth-chat/hearth/cmd/hearth/cli"
	"github.com/hearth-chat/hearth/messaging"
)

func (a *app) emailCommand() *cli.Command {
	return &cli.Command{
		Name:    "email",
		Summary: "Link an email address via the identity server",
		Subcommands: []*cli.Command{
			a.emailAddCommand(),
		},
	}
}

func (a *app) emailAddCommand() *cli.Command {
	return &cli.Command{
		Name:    "add",
		Summary: "Validate an email address and link it to the account",
		Description: `Ask the identity server to send a validation token to the address,
prompt for the received token, and on success record the address in
the local session. Requires identity_server_url in the config file.`,
		Usage: "hearth email add <address> [flags]",
		Flags: a.flags("add", nil),
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: hearth email add <address>")
			}
			address := args[0]

			session, repository, saved, logger, err := a.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			identityURL := saved.IdentityServerURL
			if identityURL == "" {
				return fmt.Errorf("no identity server configured: set identity_server_url in the config file and log in again")
			}
			identity, err := messaging.NewIdentityClient(messaging.IdentityClientConfig{
				ServerURL: identityURL,
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			// clientSecret ties the request and submit calls to the
			// same validation attempt.
			secretBytes := make([]byte, 16)
			if _, err := rand.Read(secretBytes); err != nil {
				return fmt.Errorf("generating client secret: %w", err)
			}
			clientSecret := hex.EncodeToString(secretBytes)

			requested, err := identity.RequestEmailToken(ctx, clientSecret, address, 1)
			if err != nil {
				return err
			}
			if !requested.Success {
				return fmt.Errorf("identity server declined the validation request")
			}

			token, err := cli.PromptLine(fmt.Sprintf("Token sent to %s. Enter it here: ", address))
			if err != nil {
				return err
			}
			submitted, err := identity.SubmitEmailToken(ctx, requested.SID, clientSecret, token)
			if err != nil {
				return err
			}
			if !submitted.Success {
				return fmt.Errorf("token rejected")
			}

			if !slices.Contains(saved.EmailList, address) {
				saved.EmailList = append(saved.EmailList, address)
				if err := repository.Save(saved); err != nil {
					return err
				}
			}
			fmt.Printf("validated %s\n", address)
			return nil
		},
	}
}
