package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"picup/internal/logger"
	"picup/internal/model"
	"picup/internal/repository"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Agent interface {
	Snapshot() model.Snapshot
	Restart(ctx context.Context) error
}

type Server struct {
	echo      *echo.Echo
	agent     Agent
	stats     *Stats
	histRepo  *repository.HistoryRepository
	keepAlive func() *time.Time
	port      int
	stopCh    chan struct{}
}

type Option func(*Server)

func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.echo.GET("/metrics", echo.WrapHandler(h))
	}
}

func WithKeepAlive(last func() *time.Time) Option {
	return func(s *Server) {
		s.keepAlive = last
	}
}

func NewServer(agent Agent, stats *Stats, port int, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		agent:    agent,
		stats:    stats,
		histRepo: repository.NewHistoryRepository(),
		port:     port,
		stopCh:   make(chan struct{}, 1),
	}
	s.registerRoutes()

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)
	s.echo.POST("/restart", s.handleRestart)
	s.echo.GET("/history", s.handleHistory)
}

func (s *Server) Start() {
	go func() {
		addr := "127.0.0.1:" + strconv.Itoa(s.port)
		logger.Log.Info("daemon server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("daemon server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Snapshot() model.Snapshot {
	snap := s.agent.Snapshot()
	if s.stats != nil {
		s.stats.Fill(&snap)
	}
	if s.keepAlive != nil {
		snap.LastKeepAlive = s.keepAlive()
	}

	totals, err := s.histRepo.GetStats()
	if err != nil {
		logger.Log.Debug("history totals unavailable",
			zap.Error(err))
		return snap
	}
	snap.TotalUploaded = totals.Success
	snap.TotalFailed = totals.Failed

	return snap
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleRestart(c echo.Context) error {
	if err := s.agent.Restart(context.Background()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	snap := s.agent.Snapshot()
	return c.JSON(http.StatusOK, map[string]string{
		"status":     "restarted",
		"watch_path": snap.WatchPath,
	})
}

type HistoryEntry struct {
	ID         uint      `json:"id"`
	Status     string    `json:"status"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	ErrKind    string    `json:"err_kind,omitempty"`
	ErrMsg     string    `json:"err_msg,omitempty"`
	Size       int64     `json:"size"`
	DurationMS int64     `json:"duration_ms"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid n %q", nStr)})
		}
		n = parsed
	}

	var (
		histories []model.History
		err       error
	)
	if c.QueryParam("failed") == "true" {
		histories, err = s.histRepo.GetFailed(n)
	} else {
		histories, err = s.histRepo.GetRecent(n)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	entries := make([]HistoryEntry, 0, len(histories))
	for _, h := range histories {
		entries = append(entries, HistoryEntry{
			ID:         h.ID,
			Status:     string(h.Status),
			Path:       h.Path,
			StatusCode: h.StatusCode,
			ErrKind:    string(h.ErrKind),
			ErrMsg:     h.ErrMsg,
			Size:       h.Size,
			DurationMS: h.DurationMS,
			UploadedAt: h.UploadedAt,
		})
	}

	return c.JSON(http.StatusOK, entries)
}
