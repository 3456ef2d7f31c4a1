// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/hearth-chat/hearth/cmd/hearth/cli"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/messaging"
	"github.com/hearth-chat/hearth/roomview"
)

func (a *app) watchCommand() *cli.Command {
	var from string
	return &cli.Command{
		Name:    "watch",
		Summary: "Join a room and follow it live",
		Description: `Join the room, print its member roster, then tail messages,
membership changes, and presence updates from the event stream until
interrupted. Starts from the beginning of the stream (replaying the
server's recent backlog) unless --from gives a saved cursor.`,
		Usage: "hearth watch <room_id> [flags]",
		Flags: a.flags("watch", func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&from, "from", "", "event stream cursor to resume from")
		}),
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: hearth watch <room_id>")
			}
			roomID, err := ref.ParseRoomID(args[0])
			if err != nil {
				return err
			}

			session, _, _, logger, err := a.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			roomSession, err := roomview.Open(ctx, session, roomID, roomview.RoomSessionConfig{
				Cursor:  from,
				Logger:  logger,
				OnEvent: printEvent,
			})
			if err != nil {
				return err
			}
			defer roomSession.Close()

			fmt.Printf("watching %s as %s (interrupt to stop)\n", roomID, session.UserID())
			for _, member := range roomSession.View().Members() {
				fmt.Printf("  %s\n", describeMember(member))
			}

			<-ctx.Done()
			fmt.Printf("\nstream cursor: %s\n", roomSession.Cursor())
			return nil
		},
	}
}

func printEvent(event messaging.Event) {
	switch event.Type {
	case messaging.EventTypeMessage:
		fmt.Printf("<%s> %s\n", event.UserID, event.MessageBody())
	case messaging.EventTypeMember:
		fmt.Printf("* %s is now %q\n", event.TargetUserID, event.Membership())
	case messaging.EventTypePresence:
		if state, ok := event.PresenceState(); ok {
			fmt.Printf("* %s presence code %d\n", event.PresenceSubject(), state)
		}
	case messaging.EventTypeTopic:
		fmt.Printf("* topic: %v\n", event.Content["topic"])
	}
}

func describeMember(member roomview.MemberEntry) string {
	name := member.DisplayName
	if name == "" {
		name = member.UserID.String()
	}
	return fmt.Sprintf("%s [%s, %s]", name, member.Membership, member.Presence)
}
