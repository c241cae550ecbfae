// Package wsserver exposes a capture pipeline to consumers over HTTP and
// websockets.
//
//	GET /frame?max_age_ms=N[&format=json]  newest settled frame
//	GET /stats                             session statistics
//	GET /ws                                scroll signals in, settle notifications out
package wsserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/screensettle/pkg/capture"
	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 4096
	shutdownWait   = 3 * time.Second
)

// Capture is the part of capture.Pipeline the server uses.
type Capture interface {
	FetchLatest(maxAge time.Duration) (pipeline.QueueEntry, error)
	OnScrollSignal(sig pipeline.ScrollSignal)
	Stats() capture.Stats
}

// FrameResponse is the JSON form of a fetched frame.
type FrameResponse struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Layout     string       `json:"layout"`
	CapturedAt time.Time    `json:"captured_at"`
	AgeMs      int64        `json:"age_ms"`
	Color      pipeline.RGB `json:"color"`
	Sampled    bool         `json:"sampled"`
	Data       []byte       `json:"data"`
}

// SettledMessage is pushed to websocket clients for every settled frame.
type SettledMessage struct {
	Type       string       `json:"type"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Layout     string       `json:"layout"`
	CapturedAt time.Time    `json:"captured_at"`
	Color      pipeline.RGB `json:"color"`
	Hex        string       `json:"hex"`
}

// ClientMessage is what clients send over the websocket.
type ClientMessage struct {
	Type   string `json:"type"`
	Source string `json:"source"`
	Delta  int    `json:"delta"`
}

// Server serves frames and notifications.
type Server struct {
	capture  Capture
	clock    ports.Clock
	logger   ports.Logger
	upgrader websocket.Upgrader
	hub      *hub
	mux      *http.ServeMux
}

// New creates a server for c.
func New(c Capture, clock ports.Clock, logger ports.Logger) *Server {
	s := &Server{
		capture: c,
		clock:   clock,
		logger:  logger.WithComponent("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		hub: newHub(),
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /frame", s.handleFrame)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.hub.len()
}

// Notify pushes a settle notification to all websocket clients. It never
// blocks and is meant to be passed to capture.Pipeline.OnSettled.
func (s *Server) Notify(entry pipeline.QueueEntry) {
	msg, err := json.Marshal(SettledMessage{
		Type:       "settled",
		Width:      entry.Width,
		Height:     entry.Height,
		Layout:     entry.Layout.String(),
		CapturedAt: entry.CapturedAt,
		Color:      entry.Color,
		Hex:        entry.Color.Hex(),
	})
	if err != nil {
		return
	}
	s.hub.broadcast(msg)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("Serving frames on %s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var maxAge time.Duration
	if v := r.URL.Query().Get("max_age_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			http.Error(w, "max_age_ms must be a non-negative integer", http.StatusBadRequest)
			return
		}
		maxAge = time.Duration(ms) * time.Millisecond
	}

	entry, err := s.capture.FetchLatest(maxAge)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	now := s.clock.Now()
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, FrameResponse{
			Width:      entry.Width,
			Height:     entry.Height,
			Layout:     entry.Layout.String(),
			CapturedAt: entry.CapturedAt,
			AgeMs:      entry.Age(now).Milliseconds(),
			Color:      entry.Color,
			Sampled:    entry.Sampled,
			Data:       entry.Data,
		})
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("X-Frame-Width", strconv.Itoa(entry.Width))
	h.Set("X-Frame-Height", strconv.Itoa(entry.Height))
	h.Set("X-Frame-Layout", entry.Layout.String())
	h.Set("X-Frame-Age-Ms", strconv.FormatInt(entry.Age(now).Milliseconds(), 10))
	if entry.Sampled {
		h.Set("X-Frame-Color", entry.Color.Hex())
	}
	w.WriteHeader(http.StatusOK)
	w.Write(entry.Data)
}

// statusFor maps capture errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, capture.ErrNotCapturing):
		return http.StatusServiceUnavailable
	case errors.Is(err, capture.ErrNoFrameAvailable):
		return http.StatusNotFound
	case errors.Is(err, capture.ErrFrameTooOld):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.capture.Stats())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Websocket upgrade failed: %s", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	s.hub.add(c)
	s.logger.Debug("Websocket client connected from %s", r.RemoteAddr)

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer func() {
		s.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Websocket read failed: %s", err)
			}
			return
		}

		switch msg.Type {
		case "scroll":
			source := msg.Source
			if source == "" {
				source = "ws"
			}
			s.capture.OnScrollSignal(pipeline.ScrollSignal{
				SourceID:  source,
				Timestamp: s.clock.Now(),
				Delta:     msg.Delta,
			})
		default:
			s.logger.Debug("Ignoring websocket message of type %q", msg.Type)
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
