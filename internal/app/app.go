package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"csync-go/internal/canvas"
	"csync-go/internal/config"
	"csync-go/internal/csync"
	"csync-go/internal/database"
	"csync-go/internal/index"
	"csync-go/internal/mirror"
	"csync-go/internal/model"
	"csync-go/internal/state"
)

// CSyncApp is the application layer between the CLI or API server and
// the sync engine. It constructs all dependencies from config, exposes
// high-level operations, and manages resource lifecycle on Close.
type CSyncApp struct {
	cfg     *config.Config
	logger  csync.Logger
	logSync func()
	db      csync.History
	mirror  csync.Mirror
	service *csync.SyncService
	clock   csync.Clock
	idgen   csync.IDGenerator
}

// NewCSyncApp creates a fully wired CSyncApp from the given config.
// The caller must call Close when done.
func NewCSyncApp(cfg *config.Config) (*CSyncApp, error) {
	logDir := cfg.LogDir
	if logDir == "" {
		logDir = filepath.Join(cfg.RootDir, "log")
	}
	invocationID := time.Now().UTC().Format("20060102T150405Z")
	sugar, logSync, err := newLogger(logDir, invocationID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &zapAdapter{s: sugar}

	canvasClient := canvas.NewClient(cfg.CanvasURL, cfg.CanvasToken, logger)

	m, err := mirror.NewMirrorFromConfig(cfg.Mirror, cfg.RootDir)
	if err != nil {
		logSync()
		return nil, fmt.Errorf("creating mirror: %w", err)
	}
	if err := m.ValidateSetup(context.Background()); err != nil {
		logSync()
		return nil, fmt.Errorf("validating mirror: %w", err)
	}

	idx, err := index.NewIndexStoreFromConfig(cfg.Index)
	if err != nil {
		logSync()
		return nil, fmt.Errorf("creating index store: %w", err)
	}

	dbCfg := cfg.Database
	if dbCfg.DataDir == "" {
		dbCfg.DataDir = cfg.RootDir
	}
	db, err := database.NewDatabaseFromConfig(dbCfg)
	if err != nil {
		logSync()
		return nil, fmt.Errorf("creating database: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		logSync()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	mapping := state.NewMapping(filepath.Join(cfg.RootDir, state.MappingFileName))
	denials := state.NewDenials(filepath.Join(cfg.RootDir, state.InaccessibleFileName))

	clock := csync.RealClock{}
	svc := csync.NewSyncService(canvasClient, m, mapping, denials, idx, logger, clock, csync.ServiceConfig{
		CanvasURL:   cfg.CanvasURL,
		RootDir:     cfg.RootDir,
		UploadDelay: cfg.UploadDelay(),
	})

	return &CSyncApp{
		cfg:     cfg,
		logger:  logger,
		logSync: logSync,
		db:      db,
		mirror:  m,
		service: svc,
		clock:   clock,
		idgen:   csync.UUIDGenerator{},
	}, nil
}

// Status returns a fresh reconciliation of remote content against the
// persisted index state. Nothing is downloaded or uploaded.
func (a *CSyncApp) Status(ctx context.Context) (*model.StatusReport, error) {
	return a.service.Check(ctx)
}

// Courses returns the active courses visible to the configured token.
func (a *CSyncApp) Courses(ctx context.Context) []canvas.Course {
	return a.service.Courses(ctx)
}

// ListRuns returns the most recent sync runs, newest first.
func (a *CSyncApp) ListRuns(limit int) ([]model.SyncRun, error) {
	return a.db.ListRuns(limit)
}

// CheckDatabase reports whether the run-history schema is current.
func (a *CSyncApp) CheckDatabase() error {
	return a.db.CheckMigrations()
}

// Service exposes the sync engine for the API server.
func (a *CSyncApp) Service() *csync.SyncService {
	return a.service
}

// Logger exposes the invocation logger for the API server.
func (a *CSyncApp) Logger() csync.Logger {
	return a.logger
}

// Config returns the loaded configuration.
func (a *CSyncApp) Config() *config.Config {
	return a.cfg
}

// Close flushes buffered log records and releases all resources.
func (a *CSyncApp) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	a.logSync()
	return firstErr
}
