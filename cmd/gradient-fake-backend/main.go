// ABOUTME: Local fake of the Gradient chat backend for manual testing and demos
// ABOUTME: Usage: gradient-fake-backend [-addr localhost:8000] [-secret s] [-format sse|raw] [-delay 50ms]

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/HarshalVankudre/digitalocean/internal/api"
	"github.com/HarshalVankudre/digitalocean/internal/auth"
	"github.com/HarshalVankudre/digitalocean/internal/fakebackend"
)

func main() {
	addr := flag.String("addr", "localhost:8000", "listen address")
	secret := flag.String("secret", "", "HS256 secret; when set, requests need a bearer JWT and one is printed")
	subject := flag.String("subject", "demo-user", "subject of the printed token")
	format := flag.String("format", fakebackend.FormatSSE, "stream format: sse or raw")
	sentinel := flag.String("sentinel", "[DONE]", "end-of-stream sentinel for sse")
	delay := flag.Duration("delay", 50*time.Millisecond, "pause between streamed words")
	abortAfter := flag.Int("abort-after", 0, "drop streams after this many words (0 = never)")
	failStream := flag.Int("fail-stream", 0, "HTTP status returned by the stream endpoint (0 = stream normally)")
	seed := flag.Bool("seed", true, "create a welcome conversation")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(&colorHandler{level: level}))

	opts := fakebackend.Options{
		Format:         *format,
		Sentinel:       *sentinel,
		Delay:          *delay,
		AbortAfter:     *abortAfter,
		FailStreamOpen: *failStream,
	}

	if err := run(*addr, *secret, *subject, *seed, opts); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, secret, subject string, seed bool, opts fakebackend.Options) error {
	if opts.Format != fakebackend.FormatSSE && opts.Format != fakebackend.FormatRaw {
		return fmt.Errorf("unknown format %q", opts.Format)
	}

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	if secret != "" {
		verifier := auth.NewJWTVerifier([]byte(secret))
		token, err := verifier.Generate(subject, 24*time.Hour)
		if err != nil {
			return fmt.Errorf("generating token: %w", err)
		}
		opts.Verifier = verifier
		cyan.Println("Bearer token (valid 24h):")
		fmt.Println(token)
		fmt.Println()
	}

	backend := fakebackend.New(opts)
	if seed {
		id := backend.Seed("Welcome",
			api.Message{Role: "user", Content: "What can you do?"},
			api.Message{Role: "assistant", Content: "I echo what you send, with a little **markdown**. Ask for a *list* to see more."},
		)
		slog.Info("seeded conversation", "conversation_id", id)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           backend,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	green.Printf("fake backend listening on http://%s (format=%s)\n", addr, opts.Format)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	slog.Info("stopped")
	return nil
}

// stderrMu serializes writes from every colorHandler derived via WithAttrs.
var stderrMu sync.Mutex

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	level slog.Level
	attrs []slog.Attr
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})
	buf.WriteString("\n")

	stderrMu.Lock()
	defer stderrMu.Unlock()
	_, err := fmt.Fprint(os.Stderr, buf.String())
	return err
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{level: h.level, attrs: newAttrs}
}

// WithGroup is accepted but groups are not rendered.
func (h *colorHandler) WithGroup(string) slog.Handler {
	return &colorHandler{level: h.level, attrs: h.attrs}
}
