package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/scholarhub/client/api/backend"
	"github.com/scholarhub/client/internal/config"
	"github.com/scholarhub/client/internal/credstore"
	"github.com/scholarhub/client/internal/lifecycle"
	"github.com/scholarhub/client/pkg/logger"
	sessionUC "github.com/scholarhub/client/usecase/session"
)

const usage = `scholarhub - scholarship discovery from the terminal

Usage: scholarhub <command> [arguments]

Account:
  login                 sign in with email and password
  google-login          sign in with a Google account
  logout                clear the stored session
  register              create an account (email verification required)
  reset-password        reset a forgotten password
  whoami                show the current session

Profile:
  profile show          show the profile
  profile update        edit name and profile fields
  profile password      change the password
  profile picture <f>   upload a profile picture

Scholarships:
  search [flags] [kw]   list scholarships, optionally filtered
  show <id>             show one scholarship
  featured              list featured scholarships
  filters               list available filter values

Saved & applications:
  save <id>             bookmark a scholarship
  unsave <id>           remove a bookmark by scholarship id
  saved                 list bookmarks
  applications          list submitted applications
`

type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	api      *backend.Client
	sessions *sessionUC.Manager
	in       *bufio.Reader
	out      io.Writer
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Print(usage)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("config error: %v", err)
		return 1
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Printf("logger error: %v", err)
		return 1
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)
	defer func() {
		if err := manager.Shutdown(context.Background()); err != nil {
			zapLogger.Warn("shutdown error", zap.Error(err))
		}
	}()

	store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	manager.Register("credentials", func(context.Context) error {
		return store.Close()
	})

	api := backend.New(backend.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.RequestTimeout,
		Name:    cfg.AppName,
	}, store, zapLogger)

	sessions := sessionUC.NewManager(store, api, zapLogger)
	sessions.Bootstrap(ctx)

	a := &app{
		cfg:      cfg,
		logger:   zapLogger,
		api:      api,
		sessions: sessions,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	if err := a.dispatch(ctx, manager, args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func openStore(cfg *config.Config) (credstore.Store, error) {
	switch cfg.Credentials.Backend {
	case "redis":
		return credstore.OpenRedis(credstore.RedisOptions{
			URL:      cfg.Credentials.RedisURL,
			Password: cfg.Credentials.RedisPassword,
			DB:       cfg.Credentials.RedisDB,
		})
	case "memory":
		return credstore.NewMemory(), nil
	default:
		return credstore.OpenBolt(cfg.Credentials.Path)
	}
}

func (a *app) dispatch(ctx context.Context, manager *lifecycle.Manager, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.cmdLogin(ctx)
	case "logout":
		return a.cmdLogout(ctx)
	case "google-login":
		return a.cmdGoogleLogin(ctx, manager)
	case "register":
		return a.cmdRegister(ctx)
	case "reset-password":
		return a.cmdResetPassword(ctx)
	case "whoami":
		return a.cmdWhoami()
	case "profile":
		return a.cmdProfile(ctx, rest)
	case "search":
		return a.cmdSearch(ctx, rest)
	case "show":
		return a.cmdShow(ctx, rest)
	case "featured":
		return a.cmdFeatured(ctx)
	case "filters":
		return a.cmdFilters(ctx)
	case "save":
		return a.cmdSave(ctx, rest)
	case "unsave":
		return a.cmdUnsave(ctx, rest)
	case "saved":
		return a.cmdSaved(ctx)
	case "applications":
		return a.cmdApplications(ctx)
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}
