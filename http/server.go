package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/sift"
)

// Server defaults.
const (
	DefaultKeepAlive      = 15 * time.Second
	DefaultStreamBuffer   = 64
	defaultShutdownWait   = 5 * time.Second
	defaultReadHeaderWait = 10 * time.Second
)

// Server exposes the audit stream, run summaries and saved content over HTTP.
type Server struct {
	ln     net.Listener
	server *http.Server
	mux    *http.ServeMux

	// Addr is the bind address used by Open.
	Addr string

	Events   sift.EventSubscriber
	Audit    sift.AuditStore
	Runs     sift.RunService
	Contents sift.ContentService

	// KeepAlive is the interval between SSE comment pings.
	KeepAlive time.Duration
	// StreamBuffer is how many events a slow SSE client may lag behind
	// before events are dropped for it.
	StreamBuffer int

	Logger *slog.Logger
}

// NewServer returns a Server with its routes registered.
func NewServer() *Server {
	s := &Server{
		mux:          http.NewServeMux(),
		KeepAlive:    DefaultKeepAlive,
		StreamBuffer: DefaultStreamBuffer,
		Logger:       slog.Default(),
	}
	s.server = &http.Server{Handler: s, ReadHeaderTimeout: defaultReadHeaderWait}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /topics/{topic}/events", s.handleStream)
	s.mux.HandleFunc("GET /topics/{topic}/contents", s.handleContents)
	s.mux.HandleFunc("GET /runs/{run}", s.handleRun)
	s.mux.HandleFunc("GET /runs/{run}/events", s.handleReplay)
}

// Open binds Addr and serves in the background.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr, err)
	}
	s.ln = ln
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("http server stopped", "err", err)
		}
	}()
	return nil
}

// URL returns the base URL of an opened server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownWait)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// handleStream relays live audit events of a topic as server-sent events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		s.Error(w, r, sift.Errorf(sift.ENOTFOUND, "event stream not configured"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.Error(w, r, errors.New("response writer does not support flushing"))
		return
	}

	events := make(chan *sift.AuditEvent, s.StreamBuffer)
	unsubscribe := s.Events.Subscribe(r.PathValue("topic"), func(_ context.Context, event *sift.AuditEvent) {
		select {
		case events <- event:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ping := time.NewTicker(s.KeepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event := <-events:
			if err := writeEvent(w, event); err != nil {
				s.Logger.Warn("writing event stream failed", "topic", event.TopicID, "err", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event *sift.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s:%s\ndata: %s\n\n", event.ID, event.Step, event.Status, data)
	return err
}

// handleReplay returns the stored events of a run in emission order.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run")
	offset, limit, err := pageParams(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	events, err := s.Audit.FindEvents(r.Context(), sift.AuditFilter{RunID: &runID, Offset: offset, Limit: limit})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if events == nil {
		events = []*sift.AuditEvent{}
	}
	s.writeJSON(w, r, events)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Runs.FindRunSummaryByRunID(r.Context(), r.PathValue("run"))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.writeJSON(w, r, summary)
}

func (s *Server) handleContents(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("topic")
	offset, limit, err := pageParams(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	contents, err := s.Contents.FindContents(r.Context(), sift.ContentFilter{TopicID: &topicID, Offset: offset, Limit: limit})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if contents == nil {
		contents = []*sift.Content{}
	}
	s.writeJSON(w, r, contents)
}

func pageParams(r *http.Request) (offset, limit int, err error) {
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, sift.Errorf(sift.EINVALID, "invalid offset %q", v)
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, sift.Errorf(sift.EINVALID, "invalid limit %q", v)
		}
	}
	return offset, limit, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("encoding response failed", "path", r.URL.Path, "err", err)
	}
}

// codes maps application error codes to HTTP status codes.
var codes = map[string]int{
	sift.ECONFLICT: http.StatusConflict,
	sift.EINVALID:  http.StatusBadRequest,
	sift.ENOTFOUND: http.StatusNotFound,
	sift.EINTERNAL: http.StatusInternalServerError,
}

// Error writes err as a JSON error response. Internal errors are logged
// and their details hidden from the client.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	code, message := sift.ErrorCode(err), sift.ErrorMessage(err)
	status, ok := codes[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error("http request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}{Code: code, Error: message})
}
