// Package server exposes the sync engine over a small HTTP API:
// health and status probes, sync triggering, run history, and
// Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"csync-go/internal/canvas"
	"csync-go/internal/config"
	"csync-go/internal/csync"
	"csync-go/internal/model"
)

// App is the application surface the server exposes over HTTP.
// app.CSyncApp satisfies it.
type App interface {
	RunSync(ctx context.Context, opts csync.SyncOptions) (*model.Report, error)
	Status(ctx context.Context) (*model.StatusReport, error)
	Courses(ctx context.Context) []canvas.Course
	ListRuns(limit int) ([]model.SyncRun, error)
	CheckDatabase() error
}

// Server handles the HTTP API. Sync triggers go through a Runner so at
// most one run is in flight regardless of how many clients ask.
type Server struct {
	app     App
	runner  *csync.Runner
	logger  csync.Logger
	metrics *Metrics
	cfg     config.ServerConfig
}

func New(application App, runner *csync.Runner, logger csync.Logger, metrics *Metrics, cfg config.ServerConfig) *Server {
	return &Server{
		app:     application,
		runner:  runner,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	router.GET("/healthcheck", s.healthcheck)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/index/status", s.indexStatus)
		api.GET("/courses", s.courses)
		api.POST("/sync", s.triggerSync)
		api.GET("/sync/status", s.syncStatus)
		api.GET("/runs", s.listRuns)
	}

	return router
}

// Serve runs the HTTP API until the context is canceled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("api server listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) healthcheck(c *gin.Context) {
	if err := s.app.CheckDatabase(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) indexStatus(c *gin.Context) {
	report, err := s.app.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) courses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"courses": s.app.Courses(c.Request.Context())})
}

// syncRequest is the optional body of POST /api/sync.
type syncRequest struct {
	CourseID   int64 `json:"course_id"`
	SkipUpload bool  `json:"skip_upload"`
	UploadOnly bool  `json:"upload_only"`
}

func (s *Server) triggerSync(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}
	if req.SkipUpload && req.UploadOnly {
		c.JSON(http.StatusBadRequest, gin.H{"error": "skip_upload and upload_only are mutually exclusive"})
		return
	}

	opts := csync.SyncOptions{
		CourseID:   req.CourseID,
		SkipUpload: req.SkipUpload,
		UploadOnly: req.UploadOnly,
	}
	operation := opts.Operation()

	err := s.runner.TryStart(func(ctx context.Context) (*model.Report, error) {
		s.metrics.RunStarted()
		start := time.Now()
		report, err := s.app.RunSync(ctx, opts)
		s.metrics.RunFinished(operation, time.Since(start).Seconds(), report, err)
		return report, err
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("sync run triggered", "operation", operation)
	c.JSON(http.StatusAccepted, gin.H{"status": "started", "operation": operation})
}

// runResult is the serialized form of the last background run.
type runResult struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Report     *model.Report `json:"report,omitempty"`
	Error      string        `json:"error,omitempty"`
}

func (s *Server) syncStatus(c *gin.Context) {
	status := s.runner.Status()
	resp := gin.H{"running": status.Running}
	if status.Running {
		resp["started_at"] = status.StartedAt
	}
	if status.Last != nil {
		last := runResult{
			StartedAt:  status.Last.StartedAt,
			FinishedAt: status.Last.FinishedAt,
			Report:     status.Last.Report,
		}
		if status.Last.Err != nil {
			last.Error = status.Last.Err.Error()
		}
		resp["last"] = last
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	runs, err := s.app.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
