// ABOUTME: Terminal client for the Gradient chat backend with streaming replies
// ABOUTME: Entry point wiring config, logging, session resolution and the cobra command tree

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/HarshalVankudre/digitalocean/internal/api"
	"github.com/HarshalVankudre/digitalocean/internal/auth"
	"github.com/HarshalVankudre/digitalocean/internal/chat"
	"github.com/HarshalVankudre/digitalocean/internal/config"
	"github.com/HarshalVankudre/digitalocean/internal/directory"
	"github.com/HarshalVankudre/digitalocean/internal/messages"
	"github.com/HarshalVankudre/digitalocean/internal/session"
	"github.com/HarshalVankudre/digitalocean/internal/store"
	"github.com/HarshalVankudre/digitalocean/internal/stream"
)

// Version information (set via ldflags)
var Version = "dev"

type rootFlags struct {
	configPath string
	baseURL    string
	logLevel   string
	noColor    bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "gradient-chat",
		Short:         "Chat with a Gradient assistant from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), flags, cmd.OutOrStdout(), cmd.InOrStdin())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/gradient/client.yaml)")
	pf.StringVar(&flags.baseURL, "base-url", "", "backend URL, overrides backend.base_url")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colours")

	root.AddCommand(
		newChatCmd(flags),
		newConversationsCmd(flags),
		newExportCmd(flags),
	)
	return root
}

// loadConfig resolves the config file and applies flag overrides.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.LoadDefault(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.baseURL != "" {
		cfg.Backend.BaseURL = flags.baseURL
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if flags.noColor {
		color.NoColor = true
	}
	return cfg, nil
}

func setupLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// app holds everything a command needs to talk to the backend.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	tokens auth.TokenSource
	client *api.Client
	db     *store.SQLiteStore
	msgs   *messages.Store
	dir    *directory.Directory
	mgr    *session.Manager
	ctrl   *chat.Controller
}

func newApp(flags *rootFlags) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logger := setupLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	db, err := store.NewSQLiteStore(cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("opening client state: %w", err)
	}

	tokens := tokenSource(cfg.Auth)
	client := api.NewClient(cfg.Backend.BaseURL, tokens,
		api.WithTimeout(cfg.Backend.Timeout),
		api.WithLogger(logger),
	)
	msgs := messages.NewStore()
	dir := directory.New(client, cfg.Session.DefaultTitle, logger)
	state := session.NewState(db)
	mgr := session.NewManager(dir, client, state, msgs, logger)
	ingester := stream.New(stream.Options{
		Sentinel:   cfg.Stream.Sentinel,
		Trim:       cfg.Stream.Trim,
		BufferSize: cfg.Stream.ReadBuffer,
		Logger:     logger,
	})

	return &app{
		cfg:    cfg,
		logger: logger,
		tokens: tokens,
		client: client,
		db:     db,
		msgs:   msgs,
		dir:    dir,
		mgr:    mgr,
		ctrl:   chat.NewController(client, state, msgs, ingester, logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func tokenSource(cfg config.AuthConfig) auth.TokenSource {
	if cfg.Token != "" {
		return auth.StaticSource(cfg.Token)
	}
	return auth.NewEnvFileSource(cfg.TokenEnv, cfg.TokenFile)
}

// checkToken describes the configured token. An expired token is still
// sent; the backend decides.
func checkToken(w io.Writer, tokens auth.TokenSource) {
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	token := tokens.Token()
	if token == "" {
		yellow.Fprintln(w, "Auth: no token configured (set GRADIENT_TOKEN or write ~/.config/gradient/token)")
		return
	}

	info, err := auth.Inspect(token)
	if err != nil {
		gray.Fprintln(w, "Auth: opaque bearer token configured")
		return
	}
	if info.Expired(time.Now()) {
		yellow.Fprintf(w, "Auth: token for %s expired at %s\n", info.Subject, info.ExpiresAt.Format(time.RFC3339))
		return
	}
	gray.Fprintf(w, "Auth: signed in as %s\n", info.Subject)
}

// describeError turns client errors into a single line for the terminal.
func describeError(err error) string {
	var se *api.StatusError
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "not authorized: check your token"
	case errors.Is(err, chat.ErrStreamInterrupted):
		return "the reply was interrupted; your message was not kept, please send it again"
	case errors.Is(err, chat.ErrSendFailed):
		return "the message could not be sent: " + rootCause(err)
	case errors.As(err, &se) && se.Detail != "":
		return se.Detail
	}
	return err.Error()
}

func rootCause(err error) string {
	var se *api.StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}
