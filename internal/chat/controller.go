// ABOUTME: SendController submitting user input and assembling the assistant reply
// ABOUTME: Streams when possible, falls back to a single-shot request, rolls back on failure

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/HarshalVankudre/digitalocean/internal/api"
	"github.com/HarshalVankudre/digitalocean/internal/messages"
	"github.com/HarshalVankudre/digitalocean/internal/stream"
)

var (
	// ErrEmptyInput is returned for blank input
	ErrEmptyInput = errors.New("message is empty")
	// ErrNoConversation is returned when no conversation is active
	ErrNoConversation = errors.New("no active conversation")
	// ErrBusy is returned while another submission is in flight
	ErrBusy = errors.New("a message is already being sent")
	// ErrSendFailed is returned when neither streaming nor the single-shot
	// request produced a reply
	ErrSendFailed = errors.New("message could not be sent")
	// ErrStreamInterrupted is returned when an open stream fails mid-reply
	ErrStreamInterrupted = errors.New("reply was interrupted")
)

// Backend sends messages to a conversation.
type Backend interface {
	OpenStream(ctx context.Context, id, content string) (io.ReadCloser, error)
	SendMessage(ctx context.Context, id, content string) (*api.Message, error)
}

// ActiveConversation reports the conversation the message sequence belongs to.
type ActiveConversation interface {
	Active() string
}

// Controller is the SendController. One submission runs at a time.
type Controller struct {
	backend  Backend
	active   ActiveConversation
	msgs     *messages.Store
	ingester *stream.Ingester
	logger   *slog.Logger

	mu      sync.Mutex
	busy    bool
	state   State
	onState func(State)
}

// NewController wires a Controller. A nil ingester uses stream defaults and
// a nil logger means slog.Default().
func NewController(backend Backend, active ActiveConversation, msgs *messages.Store, ingester *stream.Ingester, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if ingester == nil {
		ingester = stream.New(stream.Options{Logger: logger})
	}
	return &Controller{
		backend:  backend,
		active:   active,
		msgs:     msgs,
		ingester: ingester,
		logger:   logger.With("component", "chat"),
	}
}

// OnState registers fn to be called on every state transition. It is called
// on the submitting goroutine.
func (c *Controller) OnState(fn func(State)) {
	c.mu.Lock()
	c.onState = fn
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a submission is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Submit sends text to the active conversation and blocks until the reply
// is complete or has failed. A submission while another is in flight is
// rejected with ErrBusy.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	convID := c.active.Active()
	if convID == "" {
		return ErrNoConversation
	}
	if !c.acquire() {
		return ErrBusy
	}
	defer c.release()

	c.setState(Sending)
	userID := c.msgs.AppendUser(text)
	// the submission owns the sequence only while it is this generation of
	// this conversation; a switch away and back starts a new one
	gen := c.msgs.Generation()
	current := func() bool {
		return c.active.Active() == convID && c.msgs.Generation() == gen
	}

	c.setState(StreamOpening)
	body, err := c.backend.OpenStream(ctx, convID, text)
	if err != nil {
		c.setState(StreamOpenFailed)
		c.logger.Info("stream unavailable, falling back", "conversation_id", convID, "error", err)
		return c.fallback(ctx, convID, text, userID, current, err)
	}
	defer body.Close()

	c.setState(StreamReading)
	var assistantID string
	stale := false
	onDelta := func(delta string) {
		if !current() {
			if !stale {
				c.logger.Warn("discarding reply for inactive conversation", "conversation_id", convID)
				stale = true
			}
			return
		}
		assistantID = c.msgs.AppendAssistantDelta(delta)
	}

	stats, err := c.ingester.Ingest(ctx, body, onDelta, nil)
	if err != nil {
		c.setState(StreamFailed)
		c.logger.Warn("stream interrupted",
			"conversation_id", convID,
			"deltas", stats.Deltas,
			"error", err,
		)
		if current() {
			if assistantID != "" {
				c.msgs.RemoveByID(assistantID)
			}
			c.msgs.RemoveByID(userID)
		}
		return fmt.Errorf("%w: %w", ErrStreamInterrupted, err)
	}

	if current() {
		c.msgs.FinalizeStreaming()
	}
	c.setState(Completed)
	c.logger.Debug("reply complete", "conversation_id", convID, "deltas", stats.Deltas, "bytes", stats.Bytes)
	return nil
}

// fallback performs the single-shot request after the stream failed to open.
func (c *Controller) fallback(ctx context.Context, convID, text, userID string, current func() bool, streamErr error) error {
	c.setState(FallbackRequest)
	reply, err := c.backend.SendMessage(ctx, convID, text)
	if err != nil {
		c.setState(FallbackFailed)
		if current() {
			c.msgs.RemoveByID(userID)
		}
		c.logger.Error("send failed", "conversation_id", convID, "error", err)
		return fmt.Errorf("%w: %w; fallback: %w", ErrSendFailed, streamErr, err)
	}

	c.setState(FallbackSucceeded)
	if current() {
		c.msgs.ReplaceLast(messages.FromAPI(*reply))
	}
	return nil
}

func (c *Controller) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.state = Idle
	fn := c.onState
	c.mu.Unlock()

	if fn != nil {
		fn(Idle)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	fn := c.onState
	c.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}
