// Package httpapi exposes a scan session over HTTP for scanner gateways and
// remote displays.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/shopfloor/journal"
	"shopfloor_go/internal/shopfloor/session"
)

type Session interface {
	Start(ctx context.Context, usage string) (engine.View, error)
	Scan(ctx context.Context, text string) (engine.View, error)
	Action(ctx context.Context, name string, p engine.Payload) (engine.View, error)
	View(ctx context.Context) (engine.View, error)
	Status() session.Stats
}

// Journal is optional; without it /journal answers 404.
type Journal interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

type Options struct {
	Addr    string
	Session Session
	Metrics http.Handler
	Journal Journal
	Logger  *slog.Logger
}

type Server struct {
	addr    string
	sess    Session
	journal Journal
	log     *slog.Logger
	router  *gin.Engine
	http    *http.Server
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLog(log))

	s := &Server{
		addr:    opts.Addr,
		sess:    opts.Session,
		journal: opts.Journal,
		log:     log,
		router:  router,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	router.GET("/health", s.handleHealth)
	router.GET("/stats", s.handleStats)
	router.GET("/view", s.handleView)
	router.POST("/scan", s.handleScan)
	router.POST("/action", s.handleAction)
	router.POST("/scenario", s.handleScenario)
	router.GET("/journal", s.handleJournal)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http listening", "addr", s.addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type scanRequest struct {
	Text string `json:"text" binding:"required"`
}

type actionRequest struct {
	Name    string         `json:"name" binding:"required"`
	Payload engine.Payload `json:"payload"`
}

type scenarioRequest struct {
	Usage string `json:"usage"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": "shopfloor"})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.sess.Status())
}

func (s *Server) handleView(c *gin.Context) {
	v, err := s.sess.View(c.Request.Context())
	s.respond(c, v, err)
}

func (s *Server) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	v, err := s.sess.Scan(c.Request.Context(), req.Text)
	s.respond(c, v, err)
}

func (s *Server) handleAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	v, err := s.sess.Action(c.Request.Context(), req.Name, req.Payload)
	s.respond(c, v, err)
}

func (s *Server) handleScenario(c *gin.Context) {
	var req scenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	v, err := s.sess.Start(c.Request.Context(), req.Usage)
	s.respond(c, v, err)
}

func (s *Server) handleJournal(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "journal disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := s.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries})
}

// respond reports operator errors with 200; only a dead session is a
// server failure.
func (s *Server) respond(c *gin.Context, v engine.View, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "view": v, "stats": s.sess.Status()})
	case errors.Is(err, session.ErrClosed), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error(), "view": v, "stats": s.sess.Status()})
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"request_id", c.GetString("request_id"),
			"took", time.Since(start),
		)
	}
}
