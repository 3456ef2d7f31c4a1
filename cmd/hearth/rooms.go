// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/hearth-chat/hearth/cmd/hearth/cli"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/messaging"
)

func (a *app) roomsCommand() *cli.Command {
	return &cli.Command{
		Name:    "rooms",
		Summary: "List, create, and browse rooms",
		Subcommands: []*cli.Command{
			a.roomsListCommand(),
			a.roomsPublicCommand(),
			a.roomsCreateCommand(),
		},
	}
}

func (a *app) roomsListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Summary: "List rooms you are a member of",
		Flags:   a.flags("list", nil),
		Run: func(ctx context.Context, args []string) error {
			session, _, _, _, err := a.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			rooms, err := session.ListRooms(ctx)
			if err != nil {
				return err
			}
			return printRooms(rooms)
		},
	}
}

func (a *app) roomsPublicCommand() *cli.Command {
	return &cli.Command{
		Name:    "public",
		Summary: "List the server's public room directory",
		Flags:   a.flags("public", nil),
		Run: func(ctx context.Context, args []string) error {
			client, _, _, err := a.openClient()
			if err != nil {
				return err
			}
			rooms, err := client.PublicRooms(ctx)
			if err != nil {
				return err
			}
			return printRooms(rooms)
		},
	}
}

func (a *app) roomsCreateCommand() *cli.Command {
	var private bool
	return &cli.Command{
		Name:    "create",
		Summary: "Create a room",
		Usage:   "hearth rooms create <room_id> [flags]",
		Flags: a.flags("create", func(flagSet *pflag.FlagSet) {
			flagSet.BoolVar(&private, "private", false, "create the room as private")
		}),
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: hearth rooms create <room_id>")
			}
			roomID, err := ref.ParseRoomID(args[0])
			if err != nil {
				return err
			}

			session, _, _, _, err := a.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			visibility := "public"
			if private {
				visibility = "private"
			}
			created, err := session.CreateRoom(ctx, roomID, visibility)
			if err != nil {
				return err
			}
			fmt.Printf("created %s (%s)\n", created, visibility)
			return nil
		},
	}
}

func (a *app) joinCommand() *cli.Command {
	return &cli.Command{
		Name:    "join",
		Summary: "Join a room",
		Usage:   "hearth join <room_id> [flags]",
		Flags:   a.flags("join", nil),
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: hearth join <room_id>")
			}
			roomID, err := ref.ParseRoomID(args[0])
			if err != nil {
				return err
			}

			session, _, _, _, err := a.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.JoinRoom(ctx, roomID); err != nil {
				return err
			}
			fmt.Printf("joined %s\n", roomID)
			return nil
		},
	}
}

func (a *app) sendCommand() *cli.Command {
	return &cli.Command{
		Name:    "send",
		Summary: "Send a text message to a room",
		Usage:   "hearth send <room_id> <message...> [flags]",
		Flags:   a.flags("send", nil),
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: hearth send <room_id> <message...>")
			}
			roomID, err := ref.ParseRoomID(args[0])
			if err != nil {
				return err
			}
			body := strings.Join(args[1:], " ")

			session, _, _, _, err := a.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			msgID, err := session.SendMessage(ctx, roomID, body)
			if err != nil {
				return err
			}
			fmt.Printf("sent %s\n", msgID)
			return nil
		},
	}
}

func (a *app) inviteCommand() *cli.Command {
	return &cli.Command{
		Name:    "invite",
		Summary: "Invite a user to a room",
		Usage:   "hearth invite <room_id> <user_id> [flags]",
		Flags:   a.flags("invite", nil),
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: hearth invite <room_id> <user_id>")
			}
			roomID, err := ref.ParseRoomID(args[0])
			if err != nil {
				return err
			}
			userID, err := ref.ParseUserID(args[1])
			if err != nil {
				return err
			}

			session, _, _, _, err := a.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.InviteUser(ctx, roomID, userID); err != nil {
				return err
			}
			fmt.Printf("invited %s to %s\n", userID, roomID)
			return nil
		},
	}
}

func printRooms(rooms []messaging.RoomInfo) error {
	if len(rooms) == 0 {
		fmt.Fprintln(os.Stderr, "no rooms")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "ROOM\tMEMBERSHIP\tTOPIC\n")
	for _, room := range rooms {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", room.RoomID, room.Membership, room.Topic)
	}
	return tw.Flush()
}
