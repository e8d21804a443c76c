// ABOUTME: In-memory implementation of the conversation backend's REST and streaming API
// ABOUTME: Used by tests and by gradient-fake-backend for running the client without a real server

package fakebackend

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/HarshalVankudre/digitalocean/internal/api"
	"github.com/HarshalVankudre/digitalocean/internal/auth"
)

// Stream formats
const (
	FormatSSE = "sse" // data: lines, blank-line separated, [DONE] sentinel
	FormatRaw = "raw" // plain chunked text
)

// Options controls the fake backend's behaviour. Zero values are sensible.
type Options struct {
	// Reply computes the assistant reply. Defaults to EchoReply.
	Reply func(content string) string
	// Split cuts a reply into stream deltas. Defaults to SplitWords.
	Split func(reply string) []string
	// Format is FormatSSE (default) or FormatRaw.
	Format string
	// Sentinel ends SSE streams. Defaults to "[DONE]".
	Sentinel string
	// Delay is slept between deltas.
	Delay time.Duration

	// FailStreamOpen, when non-zero, is the status returned by the
	// streaming endpoint before any body is written.
	FailStreamOpen int
	// FailSend, when non-zero, is the status returned by the single-shot
	// message endpoint.
	FailSend int
	// FailCreate, when non-zero, is the status returned by conversation creation.
	FailCreate int
	// FailList, when non-zero, is the status returned by listing.
	FailList int
	// AbortAfter, when positive, drops the connection after that many deltas.
	AbortAfter int

	// Verifier, when set, requires a valid bearer JWT on every request.
	Verifier auth.TokenVerifier
}

// Server is the fake backend. It implements http.Handler.
type Server struct {
	mu    sync.Mutex
	opts  Options
	convs map[string]*conversation
	seq   int64

	handler http.Handler
	logger  *slog.Logger
	now     func() time.Time

	streamCalls atomic.Int64
	sendCalls   atomic.Int64
	lastAuth    atomic.Value // string
}

type conversation struct {
	api.Conversation
	seq      int64
	messages []api.Message
}

// New creates an empty fake backend.
func New(opts Options) *Server {
	s := &Server{
		opts:   opts,
		convs:  make(map[string]*conversation),
		logger: slog.Default().With("component", "fakebackend"),
		now:    func() time.Time { return time.Now().UTC() },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /conversations", s.handleList)
	mux.HandleFunc("POST /conversations", s.handleCreate)
	mux.HandleFunc("GET /conversations/{id}", s.handleGet)
	mux.HandleFunc("PATCH /conversations/{id}", s.handleRename)
	mux.HandleFunc("DELETE /conversations/{id}", s.handleDelete)
	mux.HandleFunc("POST /conversations/{id}/messages", s.handleSend)
	mux.HandleFunc("POST /conversations/{id}/messages/stream", s.handleStream)

	var h http.Handler = mux
	if opts.Verifier != nil {
		h = auth.HTTPAuthMiddleware(opts.Verifier)(h)
	}
	s.handler = h
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.lastAuth.Store(r.Header.Get("Authorization"))
	s.handler.ServeHTTP(w, r)
}

// Configure mutates the options under the server lock.
func (s *Server) Configure(fn func(*Options)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.opts)
}

// Seed creates a conversation directly and returns its id.
func (s *Server) Seed(title string, msgs ...api.Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.createLocked(title)
	for _, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = s.now()
		}
		c.messages = append(c.messages, m)
	}
	return c.ID
}

// Remove deletes a conversation behind the client's back.
func (s *Server) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, id)
}

// Conversation returns a copy of a stored conversation.
func (s *Server) Conversation(id string) (api.ConversationDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return api.ConversationDetail{}, false
	}
	return c.detail(), true
}

// Count returns the number of conversations.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

// StreamCalls returns how many streaming requests were received.
func (s *Server) StreamCalls() int { return int(s.streamCalls.Load()) }

// SendCalls returns how many single-shot message requests were received.
func (s *Server) SendCalls() int { return int(s.sendCalls.Load()) }

// LastAuthorization returns the Authorization header of the last request.
func (s *Server) LastAuthorization() string {
	v, _ := s.lastAuth.Load().(string)
	return v
}

func (s *Server) createLocked(title string) *conversation {
	if strings.TrimSpace(title) == "" {
		title = "New chat"
	}
	s.seq++
	now := s.now()
	c := &conversation{
		Conversation: api.Conversation{
			ID:        uuid.New().String(),
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: s.seq,
	}
	s.convs[c.ID] = c
	return c
}

// touchLocked bumps a conversation to the front of the listing.
func (s *Server) touchLocked(c *conversation) {
	s.seq++
	c.seq = s.seq
	c.UpdatedAt = s.now()
}

func (c *conversation) detail() api.ConversationDetail {
	msgs := make([]api.Message, len(c.messages))
	copy(msgs, c.messages)
	return api.ConversationDetail{Conversation: c.Conversation, Messages: msgs}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.opts.FailList != 0 {
		status := s.opts.FailList
		s.mu.Unlock()
		sendDetail(w, status, "listing unavailable")
		return
	}
	convs := make([]*conversation, 0, len(s.convs))
	for _, c := range s.convs {
		convs = append(convs, c)
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].seq > convs[j].seq })
	out := make([]api.Conversation, len(convs))
	for i, c := range convs {
		out[i] = c.Conversation
	}
	s.mu.Unlock()

	sendJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendDetail(w, http.StatusUnprocessableEntity, "invalid body")
			return
		}
	}

	s.mu.Lock()
	if s.opts.FailCreate != 0 {
		status := s.opts.FailCreate
		s.mu.Unlock()
		sendDetail(w, status, "cannot create conversation")
		return
	}
	c := s.createLocked(req.Title)
	out := c.Conversation
	s.mu.Unlock()

	sendJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.convs[r.PathValue("id")]
	var out api.ConversationDetail
	if ok {
		out = c.detail()
	}
	s.mu.Unlock()

	if !ok {
		sendDetail(w, http.StatusNotFound, "Conversation not found")
		return
	}
	sendJSON(w, http.StatusOK, out)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		sendDetail(w, http.StatusBadRequest, "title is required")
		return
	}

	s.mu.Lock()
	c, ok := s.convs[r.PathValue("id")]
	var out api.Conversation
	if ok {
		c.Title = strings.TrimSpace(req.Title)
		c.UpdatedAt = s.now()
		out = c.Conversation
	}
	s.mu.Unlock()

	if !ok {
		sendDetail(w, http.StatusNotFound, "Conversation not found")
		return
	}
	sendJSON(w, http.StatusOK, out)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, ok := s.convs[r.PathValue("id")]
	delete(s.convs, r.PathValue("id"))
	s.mu.Unlock()

	if !ok {
		sendDetail(w, http.StatusNotFound, "Conversation not found")
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// beginExchange validates a message request, stores the user message and
// returns the conversation id and the computed reply.
func (s *Server) beginExchange(w http.ResponseWriter, r *http.Request, failStatus func(*Options) int) (string, string, bool) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		sendDetail(w, http.StatusUnprocessableEntity, "content is required")
		return "", "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if status := failStatus(&s.opts); status != 0 {
		sendDetail(w, status, "agent unavailable")
		return "", "", false
	}

	c, ok := s.convs[r.PathValue("id")]
	if !ok {
		sendDetail(w, http.StatusNotFound, "Conversation not found")
		return "", "", false
	}

	c.messages = append(c.messages, api.Message{
		ID:        uuid.New().String(),
		Role:      "user",
		Content:   req.Content,
		CreatedAt: s.now(),
	})

	reply := EchoReply
	if s.opts.Reply != nil {
		reply = s.opts.Reply
	}
	return c.ID, reply(req.Content), true
}

// finishExchange stores the assistant reply and returns it.
func (s *Server) finishExchange(id, reply string) (api.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[id]
	if !ok {
		return api.Message{}, false
	}
	msg := api.Message{
		ID:        uuid.New().String(),
		Role:      "assistant",
		Content:   reply,
		CreatedAt: s.now(),
	}
	c.messages = append(c.messages, msg)
	s.touchLocked(c)
	return msg, true
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	s.sendCalls.Add(1)

	id, reply, ok := s.beginExchange(w, r, func(o *Options) int { return o.FailSend })
	if !ok {
		return
	}
	msg, ok := s.finishExchange(id, reply)
	if !ok {
		sendDetail(w, http.StatusNotFound, "Conversation not found")
		return
	}
	sendJSON(w, http.StatusOK, msg)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.streamCalls.Add(1)

	flusher, ok := w.(http.Flusher)
	if !ok {
		sendDetail(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	id, reply, ok := s.beginExchange(w, r, func(o *Options) int { return o.FailStreamOpen })
	if !ok {
		return
	}

	s.mu.Lock()
	opts := s.opts
	s.mu.Unlock()

	split := SplitWords
	if opts.Split != nil {
		split = opts.Split
	}
	sentinel := opts.Sentinel
	if sentinel == "" {
		sentinel = "[DONE]"
	}

	if opts.Format == FormatRaw {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for i, delta := range split(reply) {
		if opts.AbortAfter > 0 && i >= opts.AbortAfter {
			s.logger.Debug("aborting stream", "conversation_id", id, "after", i)
			panic(http.ErrAbortHandler)
		}
		select {
		case <-r.Context().Done():
			return
		default:
		}

		if opts.Format == FormatRaw {
			fmt.Fprint(w, delta)
		} else {
			writeSSEData(w, delta)
		}
		flusher.Flush()

		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}

	if opts.Format != FormatRaw {
		writeSSEData(w, sentinel)
		flusher.Flush()
	}

	s.finishExchange(id, reply)
}

// writeSSEData writes one event. Each line of a multi-line delta becomes
// its own data: field.
func writeSSEData(w http.ResponseWriter, data string) {
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sendDetail writes a FastAPI-style error body.
func sendDetail(w http.ResponseWriter, status int, detail string) {
	sendJSON(w, status, map[string]string{"detail": detail})
}
