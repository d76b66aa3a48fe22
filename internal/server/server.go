// Package server hosts a live graph view over HTTP and websockets.
//
// The view is owned by its loop goroutine. Handlers never touch it
// directly: reads and writes go through loop.Do, and websocket input is
// posted to the loop. After every loop iteration that changed the view a
// state frame is pushed to each subscriber.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/msalah0e/mentorgraph/internal/dataset"
	"github.com/msalah0e/mentorgraph/internal/export"
	"github.com/msalah0e/mentorgraph/internal/interact"
	"github.com/msalah0e/mentorgraph/internal/loop"
	"github.com/msalah0e/mentorgraph/internal/scene"
	"github.com/msalah0e/mentorgraph/internal/view"
)

// Config holds server configuration.
type Config struct {
	Addr    string
	Version string
	Verbose bool
}

// Server is the live view host.
type Server struct {
	cfg     Config
	l       *loop.Loop
	v       *view.View
	log     *slog.Logger
	hub     *Hub
	metrics *Metrics
	router  *gin.Engine
	started time.Time

	// last is only touched on the loop goroutine.
	last uint64
}

// New wires routes for v. The caller runs l. m should also be among the
// view's notifiers so command events are counted.
func New(cfg Config, l *loop.Loop, v *view.View, m *Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = NewMetrics()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	s := &Server{
		cfg:     cfg,
		l:       l,
		v:       v,
		log:     log,
		hub:     NewHub(log, m),
		metrics: m,
		started: time.Now(),
	}
	s.router = s.routes()
	l.Observe(s.publish)
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.metrics.middleware(), s.logRequests())
	if s.cfg.Verbose {
		r.Use(gin.Logger())
	}

	api := r.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/state", s.handleState)
	api.GET("/scene.svg", s.handleScene)
	api.GET("/export", s.handleExport)
	api.GET("/years", s.handleYears)
	api.POST("/commands/:name", s.handleCommand)
	api.POST("/filter", s.handleFilter)
	api.POST("/pointer", s.handlePointer)
	api.POST("/select", s.handleSelect)
	api.POST("/resize", s.handleResize)

	r.GET("/ws", s.handleWS)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("serving", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// Watch reloads the dataset from src whenever its files change, and
// re-renders the view. It blocks until ctx is done.
func (s *Server) Watch(ctx context.Context, src dataset.FileSource, debounce time.Duration) error {
	s.log.Info("watching dataset", "students", src.StudentsPath, "tutoring", src.TutoringPath)
	return dataset.Watch(ctx, src.Paths(), debounce, func(changed []string) {
		ds, err := dataset.Load(ctx, src)
		if err != nil {
			s.metrics.reloads.WithLabelValues("error").Inc()
			s.log.Warn("dataset reload failed", "changed", changed, "error", err)
			return
		}
		if err := s.l.Post(func() { s.v.Reload(ds) }); err != nil {
			return
		}
		s.metrics.reloads.WithLabelValues("ok").Inc()
		s.log.Info("dataset reloaded", "changed", changed, "students", len(ds.Students), "links", len(ds.Tutoring))
	})
}

// publish runs on the loop goroutine after each busy iteration.
func (s *Server) publish() {
	ver := s.v.Version()
	if ver == s.last {
		return
	}
	s.last = ver
	if s.hub.Len() == 0 {
		return
	}
	msg, err := stateMessage(s.v)
	if err != nil {
		s.log.Error("encode state", "error", err)
		return
	}
	s.hub.Broadcast(msg)
}

func stateMessage(v *view.View) ([]byte, error) {
	data, err := json.Marshal(v.State())
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: MsgState, Data: data})
}

// do runs fn on the loop and reports failure to the client.
func (s *Server) do(c *gin.Context, fn func()) bool {
	if err := s.l.Do(c.Request.Context(), fn); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, view.ErrUnknownCommand),
		errors.Is(err, view.ErrUnknownNode),
		errors.Is(err, view.ErrUnknownYear):
		return http.StatusNotFound
	case errors.Is(err, view.ErrNotRendered):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// respond answers with the view state, or the error.
func (s *Server) respond(c *gin.Context, err error, st view.State) {
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "running",
		"version":     s.cfg.Version,
		"addr":        s.cfg.Addr,
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"subscribers": s.hub.Len(),
	})
}

func (s *Server) handleState(c *gin.Context) {
	var st view.State
	if s.do(c, func() { st = s.v.State() }) {
		c.JSON(http.StatusOK, st)
	}
}

func (s *Server) handleScene(c *gin.Context) {
	var (
		data []byte
		err  error
	)
	if !s.do(c, func() { data, err = scene.MarshalSVG(s.v.Scene()) }) {
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", data)
}

func (s *Server) handleExport(c *gin.Context) {
	var (
		buf bytes.Buffer
		out export.Outcome
		err error
	)
	ctx := c.Request.Context()
	if !s.do(c, func() { out, err = s.v.ExportSnapshot(ctx, export.WriterDest{W: &buf}) }) {
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Location))
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

type yearsResponse struct {
	Year     string           `json:"year"`
	Years    []string         `json:"years"`
	Counts   map[string]int   `json:"counts"`
	Families []dataset.Family `json:"families"`
}

func (s *Server) handleYears(c *gin.Context) {
	var resp yearsResponse
	ok := s.do(c, func() {
		ds := s.v.Dataset()
		resp = yearsResponse{
			Year:     s.v.Year(),
			Years:    ds.Years(),
			Counts:   ds.YearCounts(),
			Families: ds.Families(),
		}
	})
	if ok {
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) handleCommand(c *gin.Context) {
	name := c.Param("name")
	var (
		st  view.State
		err error
	)
	if s.do(c, func() {
		if err = s.v.Command(name); err == nil {
			st = s.v.State()
		}
	}) {
		s.respond(c, err, st)
	}
}

func (s *Server) handleFilter(c *gin.Context) {
	var req struct {
		Year string `json:"year"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var (
		st  view.State
		err error
	)
	if s.do(c, func() {
		if err = s.v.SetYearFilter(req.Year); err == nil {
			st = s.v.State()
		}
	}) {
		s.respond(c, err, st)
	}
}

func (s *Server) handlePointer(c *gin.Context) {
	var ev interact.PointerEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var (
		st  view.State
		err error
	)
	if s.do(c, func() {
		if err = s.v.Pointer(ev); err == nil {
			st = s.v.State()
		}
	}) {
		s.respond(c, err, st)
	}
}

func (s *Server) handleSelect(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var (
		st  view.State
		err error
	)
	if s.do(c, func() {
		if err = s.v.Select(req.ID); err == nil {
			st = s.v.State()
		}
	}) {
		s.respond(c, err, st)
	}
}

func (s *Server) handleResize(c *gin.Context) {
	var req struct {
		Width  float64 `json:"width" binding:"required,gt=0"`
		Height float64 `json:"height" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var st view.State
	if s.do(c, func() {
		s.v.Resize(req.Width, req.Height)
		st = s.v.State()
	}) {
		c.JSON(http.StatusOK, st)
	}
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	sub := s.hub.add(conn)
	defer s.hub.remove(sub)
	go sub.writePump()

	sub.reply(Message{Type: MsgSession, Session: sub.id})
	_ = s.l.Post(func() {
		msg, err := stateMessage(s.v)
		if err != nil {
			return
		}
		select {
		case sub.send <- msg:
		default:
		}
	})

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read", "session", sub.id, "error", err)
			}
			return
		}
		s.handleMessage(sub, m)
	}
}

// handleMessage posts client input to the loop. Failures are answered on
// the same socket; the resulting state arrives as a regular frame.
func (s *Server) handleMessage(sub *subscriber, m Message) {
	fail := func(err error) {
		sub.reply(Message{Type: MsgError, Session: sub.id, Error: err.Error()})
	}
	var run func() error
	switch m.Type {
	case MsgPointer:
		var ev interact.PointerEvent
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			fail(err)
			return
		}
		run = func() error { return s.v.Pointer(ev) }
	case MsgCommand:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(m.Data, &req); err != nil {
			fail(err)
			return
		}
		run = func() error { return s.v.Command(req.Name) }
	case MsgFilter:
		var req struct {
			Year string `json:"year"`
		}
		if err := json.Unmarshal(m.Data, &req); err != nil {
			fail(err)
			return
		}
		run = func() error { return s.v.SetYearFilter(req.Year) }
	case MsgSelect:
		var req struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(m.Data, &req); err != nil {
			fail(err)
			return
		}
		run = func() error { return s.v.Select(req.ID) }
	default:
		fail(fmt.Errorf("unknown message type %q", m.Type))
		return
	}
	if err := s.l.Post(func() {
		if err := run(); err != nil {
			fail(err)
		}
	}); err != nil {
		fail(err)
	}
}

// logRequests writes one debug line per request.
func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", float64(time.Since(start).Microseconds())/1000,
		)
	}
}
