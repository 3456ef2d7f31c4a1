// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Hearth is a command-line client for the prototype home-server chat
// API: account registration, rooms, messages, invitations, profiles,
// and a live room tail driven by the /events long-poll stream.
//
// The login session (home-server URL, user ID, access token) persists
// in a versioned session.json under the configured state directory,
// so one register or login serves all later invocations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hearth-chat/hearth/cmd/hearth/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := &cli.Command{
		Name:    "hearth",
		Summary: "Chat client for a hearth home-server",
		Subcommands: []*cli.Command{
			a.registerCommand(),
			a.loginCommand(),
			a.logoutCommand(),
			a.roomsCommand(),
			a.joinCommand(),
			a.sendCommand(),
			a.inviteCommand(),
			a.profileCommand(),
			a.emailCommand(),
			a.watchCommand(),
		},
	}
	return root.Execute(ctx, os.Args[1:])
}
