// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/hearth-chat/hearth/cmd/hearth/cli"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/store"
)

func (a *app) registerCommand() *cli.Command {
	return &cli.Command{
		Name:    "register",
		Summary: "Create an account and log in",
		Description: `Register a new account on the home-server and save the session
locally. With a name argument the server is asked for that localpart;
without one it assigns a random user ID.`,
		Usage: "hearth register [name] [flags]",
		Flags: a.flags("register", nil),
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			desired := ""
			if len(args) == 1 {
				desired = args[0]
			}

			client, cfg, logger, err := a.openClient()
			if err != nil {
				return err
			}
			session, err := client.Register(ctx, desired)
			if err != nil {
				return err
			}
			defer session.Close()

			serverURL, _ := a.serverURL(cfg, "")
			repository := a.repository(cfg, logger)
			err = repository.Save(store.SessionConfig{
				HomeserverURL:     serverURL,
				IdentityServerURL: cfg.IdentityServerURL,
				UserID:            session.UserID(),
				AccessToken:       session.AccessToken(),
			})
			if err != nil {
				return err
			}

			fmt.Printf("registered as %s\n", session.UserID())
			return nil
		},
	}
}

func (a *app) loginCommand() *cli.Command {
	return &cli.Command{
		Name:    "login",
		Summary: "Log in with an existing access token",
		Description: `Save a session for an existing account. Prompts for the access
token (input is hidden), validates it against the home-server, and
persists the session for later commands.`,
		Usage: "hearth login <user_id> [flags]",
		Flags: a.flags("login", nil),
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: hearth login <user_id>")
			}
			userID, err := ref.ParseUserID(args[0])
			if err != nil {
				return err
			}

			client, cfg, logger, err := a.openClient()
			if err != nil {
				return err
			}

			token, err := cli.PromptSecret("Access token: ")
			if err != nil {
				return err
			}
			if token == "" {
				return fmt.Errorf("empty access token")
			}

			session, err := client.SessionFromToken(userID, token)
			if err != nil {
				return err
			}
			defer session.Close()

			// Probe the token before persisting it.
			if _, err := session.ListRooms(ctx); err != nil {
				return fmt.Errorf("token validation failed: %w", err)
			}

			serverURL, _ := a.serverURL(cfg, "")
			repository := a.repository(cfg, logger)
			err = repository.Save(store.SessionConfig{
				HomeserverURL:     serverURL,
				IdentityServerURL: cfg.IdentityServerURL,
				UserID:            userID,
				AccessToken:       session.AccessToken(),
			})
			if err != nil {
				return err
			}

			fmt.Printf("logged in as %s\n", userID)
			return nil
		},
	}
}

func (a *app) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:    "logout",
		Summary: "Forget the saved session",
		Description: `Remove the locally saved session. The access token itself stays
valid on the server; the prototype API has no token revocation.`,
		Flags: a.flags("logout", nil),
		Run: func(ctx context.Context, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger, err := a.newLogger(cfg)
			if err != nil {
				return err
			}
			if err := a.repository(cfg, logger).Clear(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}
