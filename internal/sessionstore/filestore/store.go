// Package filestore implements sessionstore.Store as a single JSON document
// written atomically, with an in-memory SQLite cache serving reads.
package filestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forgepilot/reviewloop/internal/rlerrors"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/util"
)

const schemaVersion = 1

// flushBatchSize mutations trigger an immediate flush regardless of the timer.
const flushBatchSize = 20

// document is the on-disk JSON shape: { "schema_version": N, "runs": [...] }.
type document struct {
	SchemaVersion int                 `json:"schema_version"`
	Runs          []*sessionstore.Run `json:"runs"`
}

// Store is the file-backed sessionstore.Store implementation.
type Store struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	runs  map[string]*sessionstore.Run
	order []string // insertion order, oldest first

	dirty      int
	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	cache *sql.DB
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for cache-sync warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithFlushInterval overrides the default periodic flush interval (5s).
func WithFlushInterval(d time.Duration) Option {
	return func(s *Store) { s.flushEvery = d }
}

// Open rehydrates a Store from path (creating an empty document if absent),
// sweeps any run left `running` past startupGrace into `failed`/`interrupted`,
// and starts the periodic flush loop.
func Open(path string, startupGrace time.Duration, opts ...Option) (*Store, error) {
	s := &Store{
		path:       path,
		logger:     slog.Default(),
		runs:       make(map[string]*sessionstore.Run),
		flushEvery: 5 * time.Second,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := loadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("load session store document %s: %w", path, err)
	}

	cache, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open session store cache: %w", err)
	}
	if _, err := cache.Exec(cacheSchema); err != nil {
		return nil, fmt.Errorf("create session store cache schema: %w", err)
	}
	s.cache = cache

	cutoff := time.Now().Add(-startupGrace)
	for _, run := range doc.Runs {
		if run.Status == sessionstore.StatusRunning && run.StartedAt.Before(cutoff) {
			run.Status = sessionstore.StatusFailed
			run.EndedAt = time.Now()
			s.logger.Warn("marking interrupted run failed on startup", "run_id", run.ID)
			markInterrupted(run)
		}
		s.runs[run.ID] = run
		s.order = append(s.order, run.ID)
		if err := s.syncCache(run); err != nil {
			s.logger.Warn("failed to sync run to cache on startup", "run_id", run.ID, "error", err)
		}
	}

	go s.flushLoop()
	return s, nil
}

func markInterrupted(run *sessionstore.Run) {
	for i := range run.Tasks {
		if run.Tasks[i].Status == sessionstore.TaskRunning {
			run.Tasks[i].Status = sessionstore.TaskFailed
			run.Tasks[i].ErrorKind = rlerrors.KindInterrupted
			run.Tasks[i].Message = "process restarted mid-task"
			run.Tasks[i].EndedAt = time.Now()
		}
	}
}

func loadDocument(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &document{SchemaVersion: schemaVersion}, nil
		}
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &doc, nil
}

// Close flushes pending mutations and stops the background flush loop.
func (s *Store) Close() error {
	close(s.stopCh)
	<-s.doneCh
	return s.flush()
}

func (s *Store) flushLoop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.flush(); err != nil {
				s.logger.Error("session store flush failed", "error", err)
			}
		}
	}
}

// flush writes the full document to disk if there are unflushed mutations.
func (s *Store) flush() error {
	s.mu.Lock()
	if s.dirty == 0 {
		s.mu.Unlock()
		return nil
	}
	doc := document{SchemaVersion: schemaVersion, Runs: make([]*sessionstore.Run, 0, len(s.order))}
	for _, id := range s.order {
		doc.Runs = append(doc.Runs, s.runs[id])
	}
	s.dirty = 0
	s.mu.Unlock()

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return util.AtomicWriteFile(s.path, data, 0o644)
}

// markDirty increments the mutation counter and flushes immediately once
// the batch threshold is reached, without holding the lock during I/O.
func (s *Store) markDirty() {
	s.dirty++
	if s.dirty >= flushBatchSize {
		go func() {
			if err := s.flush(); err != nil {
				s.logger.Error("session store batch flush failed", "error", err)
			}
		}()
	}
}
