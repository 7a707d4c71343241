// Package ipc serves a scan session over a unix socket using newline
// delimited JSON, for barcode scanner sidecars running on the same host.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/shopfloor/session"
)

type Session interface {
	Start(ctx context.Context, usage string) (engine.View, error)
	Scan(ctx context.Context, text string) (engine.View, error)
	Action(ctx context.Context, name string, p engine.Payload) (engine.View, error)
	View(ctx context.Context) (engine.View, error)
	Status() session.Stats
}

type Server struct {
	socketPath string
	sess       Session
	log        *slog.Logger
}

func New(socketPath string, sess Session, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		socketPath: strings.TrimSpace(socketPath),
		sess:       sess,
		log:        log,
	}
}

func (s *Server) Run(ctx context.Context) error {
	if s.socketPath == "" || s.sess == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return err
	}
	_ = os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = ln.Close()
		_ = os.Remove(s.socketPath)
	}()
	_ = os.Chmod(s.socketPath, 0o666)
	s.log.Info("ipc listening", "socket", s.socketPath)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	enc := json.NewEncoder(conn)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var req request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			_ = enc.Encode(response{OK: false, Error: "invalid json"})
			continue
		}
		_ = enc.Encode(s.handleRequest(ctx, req))
	}
}

func (s *Server) handleRequest(ctx context.Context, req request) response {
	typ := strings.ToLower(strings.TrimSpace(req.Type))

	var (
		v   engine.View
		err error
	)
	switch typ {
	case "status":
		return response{OK: true, Type: typ, Stats: s.sess.Status()}
	case "view":
		v, err = s.sess.View(ctx)
	case "scan":
		v, err = s.sess.Scan(ctx, req.Text)
	case "action":
		v, err = s.sess.Action(ctx, req.Name, req.Payload)
	case "start":
		v, err = s.sess.Start(ctx, req.Usage)
	default:
		return response{
			OK:    false,
			Error: fmt.Sprintf("unsupported type: %s", req.Type),
			Stats: s.sess.Status(),
		}
	}

	resp := response{OK: err == nil, Type: typ, View: &v, Stats: s.sess.Status()}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

type request struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Name    string         `json:"name,omitempty"`
	Payload engine.Payload `json:"payload,omitempty"`
	Usage   string         `json:"usage,omitempty"`
}

type response struct {
	OK    bool          `json:"ok"`
	Type  string        `json:"type,omitempty"`
	Error string        `json:"error,omitempty"`
	View  *engine.View  `json:"view,omitempty"`
	Stats session.Stats `json:"stats"`
}
