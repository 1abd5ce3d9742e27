// Package server exposes challenge sessions over websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verte-zerg/pitchup/internal/logging"
	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notemath"
	"github.com/verte-zerg/pitchup/internal/practice"
)

// Defaults for Config zero values.
const (
	DefaultAddr             = "127.0.0.1:7420"
	DefaultReadLimit        = 4096
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
)

// Config holds server settings.
type Config struct {
	Addr             string
	ReadLimit        int64
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Challenge        model.Config
}

// Server runs one challenge engine per websocket connection over a shared
// store. Result list changes from any connection are pushed to all of them.
type Server struct {
	cfg     Config
	store   practice.ResultStore
	results *practice.ResultList
	log     *logging.Logger
}

// New creates a server. A nil logger discards output.
func New(cfg Config, store practice.ResultStore, log *logging.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = DefaultReadLimit
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Server{
		cfg:     cfg,
		store:   store,
		results: practice.NewResultList(store),
		log:     logging.OrNop(log).With("component", "server"),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.HandshakeTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

// ServeHTTP upgrades the request and runs a session until the client leaves.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// A nil CheckOrigin rejects browser origins whose host differs from the request host.
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.cfg.ReadLimit)

	c := &connection{
		conn:         conn,
		writeTimeout: s.cfg.WriteTimeout,
		log:          s.log.With("remote", r.RemoteAddr),
	}
	svc := practice.New(s.store, s.cfg.Challenge,
		practice.WithLogger(c.log),
		practice.WithResultList(s.results),
	)
	defer func() {
		svc.Cancel()
		svc.Wait()
	}()

	unsubState := svc.SubscribeState(func(st model.ChallengeState) {
		c.write(newStateMessage(st))
	})
	defer unsubState()
	unsubResults := svc.SubscribeResults(func(list []model.ChallengeResult) {
		c.write(newResultsMessage(list))
	})
	defer unsubResults()

	if err := svc.Refresh(r.Context()); err != nil {
		c.log.Error("failed to load results", "error", err)
	}
	c.log.Info("client connected")
	c.readLoop(svc, s.cfg.HandshakeTimeout)
	c.log.Info("client disconnected")
}

type connection struct {
	conn         *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	log          *logging.Logger
}

func (c *connection) readLoop(svc *practice.Service, handshakeTimeout time.Duration) {
	_ = c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	first := true
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("read ended", "error", err)
			}
			return
		}
		if first {
			_ = c.conn.SetReadDeadline(time.Time{})
			first = false
		}
		if messageType != websocket.TextMessage {
			c.writeError("frames must be JSON text")
			continue
		}
		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.writeError("invalid frame")
			continue
		}
		if err := c.handle(svc, frame); err != nil {
			c.writeError(err.Error())
		}
	}
}

func (c *connection) handle(svc *practice.Service, frame clientFrame) error {
	switch frame.Type {
	case frameStart:
		if len(frame.Notes) == 0 {
			return svc.Start()
		}
		notes := make([]notemath.Note, 0, len(frame.Notes))
		for _, name := range frame.Notes {
			n, err := notemath.ParseNote(name)
			if err != nil {
				return err
			}
			notes = append(notes, n)
		}
		return svc.Engine().StartWith(notes)
	case frameRestart:
		return svc.Restart()
	case frameCancel:
		svc.Cancel()
		return nil
	case frameSample:
		return svc.ProcessSample(model.PitchSample{Frequency: frame.Frequency, Clarity: frame.Clarity})
	case frameTick:
		svc.CheckTimeout()
		return nil
	case frameDelete:
		if frame.ID <= 0 {
			return fmt.Errorf("delete needs a result id")
		}
		svc.DeleteResult(frame.ID)
		return nil
	default:
		return fmt.Errorf("unknown frame type %q", frame.Type)
	}
}

func (c *connection) write(v any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteJSON(v); err != nil {
		c.log.Debug("write failed", "error", err)
	}
}

func (c *connection) writeError(message string) {
	c.write(errorMessage{Type: msgError, Message: message})
}
