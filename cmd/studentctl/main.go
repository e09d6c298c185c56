// Package main is studentctl, a terminal client for the student API. It runs
// the same auth and student workflows as the web frontend and keeps its
// session in a local bbolt file.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/keyxmakerx/studentdesk/internal/config"
	"github.com/keyxmakerx/studentdesk/internal/gateway"
	"github.com/keyxmakerx/studentdesk/internal/plugins/auth"
	"github.com/keyxmakerx/studentdesk/internal/plugins/students"
	"github.com/keyxmakerx/studentdesk/internal/session"
	"github.com/keyxmakerx/studentdesk/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	errAndDie(err)

	// Logs go to stderr so command output stays pipeable.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	db, err := storage.OpenBolt(cfg.CLI.DBPath)
	errAndDie(err)

	store := session.NewStore(db, session.NewSealer(cfg.Auth.SecretKey))

	api, err := gateway.New(cfg.API)
	if err != nil {
		db.Close()
		errAndDie(err)
	}
	api = api.WithTokens(store)

	cli := &commandLine{
		out:      os.Stdout,
		store:    store,
		auth:     auth.NewAuthService(api),
		students: students.NewStudentService(api),
	}

	// Ctrl-C cancels the in-flight request.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = cli.run(ctx, os.Args)
	stop()
	db.Close()

	if err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
