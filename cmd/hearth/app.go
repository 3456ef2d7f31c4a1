// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/hearth-chat/hearth/config"
	"github.com/hearth-chat/hearth/messaging"
	"github.com/hearth-chat/hearth/store"
)

// app carries the flag values and lazily constructed dependencies
// shared by every subcommand.
type app struct {
	configPath    string
	homeserverURL string
}

// addGlobalFlags registers the flags every subcommand accepts.
func (a *app) addGlobalFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&a.configPath, "config", "", "path to hearth.yaml (default: $HEARTH_CONFIG)")
	flagSet.StringVar(&a.homeserverURL, "homeserver", "", "home-server URL (overrides config)")
}

// flags builds a flag set carrying the global flags plus any extras
// registered by the caller.
func (a *app) flags(name string, extra func(*pflag.FlagSet)) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
		a.addGlobalFlags(flagSet)
		if extra != nil {
			extra(flagSet)
		}
		return flagSet
	}
}

func (a *app) loadConfig() (*config.Config, error) {
	return config.Resolve(a.configPath)
}

func (a *app) newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

func (a *app) repository(cfg *config.Config, logger *slog.Logger) *store.FileRepository {
	return store.NewFileRepository(cfg.SessionPath(), logger)
}

// serverURL resolves the home-server URL: the --homeserver flag wins,
// then the config file, then the URL saved at login.
func (a *app) serverURL(cfg *config.Config, saved string) (string, error) {
	switch {
	case a.homeserverURL != "":
		return a.homeserverURL, nil
	case cfg.HomeserverURL != "":
		return cfg.HomeserverURL, nil
	case saved != "":
		return saved, nil
	}
	return "", fmt.Errorf("no home-server URL: pass --homeserver or set homeserver_url in the config file")
}

// openClient builds an unauthenticated client, for register and the
// public room directory.
func (a *app) openClient() (*messaging.Client, *config.Config, *slog.Logger, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := a.newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	serverURL, err := a.serverURL(cfg, "")
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: serverURL,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return client, cfg, logger, nil
}

// openSession restores the saved login as an authenticated Session.
// The caller must Close the session.
func (a *app) openSession() (*messaging.Session, *store.FileRepository, store.SessionConfig, *slog.Logger, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, store.SessionConfig{}, nil, err
	}
	logger, err := a.newLogger(cfg)
	if err != nil {
		return nil, nil, store.SessionConfig{}, nil, err
	}

	repository := a.repository(cfg, logger)
	saved, ok, err := repository.Load()
	if err != nil {
		return nil, nil, store.SessionConfig{}, nil, err
	}
	if !ok {
		return nil, nil, store.SessionConfig{}, nil, fmt.Errorf("not logged in: run 'hearth register' or 'hearth login' first")
	}

	serverURL, err := a.serverURL(cfg, saved.HomeserverURL)
	if err != nil {
		return nil, nil, store.SessionConfig{}, nil, err
	}
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: serverURL,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, store.SessionConfig{}, nil, err
	}
	session, err := client.SessionFromToken(saved.UserID, saved.AccessToken)
	if err != nil {
		return nil, nil, store.SessionConfig{}, nil, err
	}
	return session, repository, saved, logger, nil
}
