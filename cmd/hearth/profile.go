// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/hearth-chat/hearth/cmd/hearth/cli"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/messaging"
)

func (a *app) profileCommand() *cli.Command {
	return &cli.Command{
		Name:    "profile",
		Summary: "Show or update profile information",
		Subcommands: []*cli.Command{
			a.profileNameCommand(),
			a.profileAvatarCommand(),
			a.profilePresenceCommand(),
		},
	}
}

func (a *app) profileNameCommand() *cli.Command {
	return &cli.Command{
		Name:    "name",
		Summary: "Show or set a display name",
		Description: `With no argument, print your display name. With one argument, set
yours. With --user, show another user's name instead.`,
		Usage: "hearth profile name [new-name] [flags]",
		Flags: a.flags("name", nil),
		Run: func(ctx context.Context, args []string) error {
			session, repository, saved, _, err := a.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			if len(args) == 0 {
				name, err := session.GetDisplayName(ctx, session.UserID())
				if err != nil {
					return err
				}
				fmt.Println(name)
				return nil
			}
			if len(args) > 1 {
				return fmt.Errorf("usage: hearth profile name [new-name]")
			}

			if err := session.SetDisplayName(ctx, args[0]); err != nil {
				return err
			}
			// Keep the cached copy in the session file current.
			saved.DisplayName = args[0]
			if err := repository.Save(saved); err != nil {
				return err
			}
			fmt.Printf("display name set to %q\n", args[0])
			return nil
		},
	}
}

func (a *app) profileAvatarCommand() *cli.Command {
	return &cli.Command{
		Name:    "avatar",
		Summary: "Show or set a profile picture URL",
		Usage:   "hearth profile avatar [new-url] [flags]",
		Flags:   a.flags("avatar", nil),
		Run: func(ctx context.Context, args []string) error {
			session, repository, saved, _, err := a.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			if len(args) == 0 {
				avatar, err := session.GetAvatarURL(ctx, session.UserID())
				if err != nil {
					return err
				}
				fmt.Println(avatar)
				return nil
			}
			if len(args) > 1 {
				return fmt.Errorf("usage: hearth profile avatar [new-url]")
			}

			if err := session.SetAvatarURL(ctx, args[0]); err != nil {
				return err
			}
			saved.AvatarURL = args[0]
			if err := repository.Save(saved); err != nil {
				return err
			}
			fmt.Printf("avatar set to %s\n", args[0])
			return nil
		},
	}
}

func (a *app) profilePresenceCommand() *cli.Command {
	return &cli.Command{
		Name:    "presence",
		Summary: "Show a user's presence, or set yours",
		Description: `With a user ID argument, show that user's presence. With "online"
or "offline", set your own.`,
		Usage: "hearth profile presence <user_id>|online|offline [flags]",
		Flags: a.flags("presence", nil),
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: hearth profile presence <user_id>|online|offline")
			}

			session, _, _, _, err := a.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			switch args[0] {
			case "online":
				return session.SetPresence(ctx, messaging.PresenceStatus{State: messaging.PresenceOnline})
			case "offline":
				return session.SetPresence(ctx, messaging.PresenceStatus{State: messaging.PresenceOffline})
			}

			userID, err := ref.ParseUserID(args[0])
			if err != nil {
				return err
			}
			status, err := session.GetPresence(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Println(describePresence(status))
			return nil
		},
	}
}

func describePresence(status *messaging.PresenceStatus) string {
	var state string
	switch status.State {
	case messaging.PresenceOnline:
		state = "online"
	case messaging.PresenceOffline:
		state = "offline"
	default:
		state = fmt.Sprintf("state %d", status.State)
	}
	if status.StatusMsg != "" {
		return fmt.Sprintf("%s (%s)", state, status.StatusMsg)
	}
	return state
}
