// Package session orchestrates one configured station: it restores
// persisted state, runs archive catch-up to completion, then drives the
// live transport adapter, folding every batch through the normalizer
// and the accumulator engine before handing snapshots to the sinks.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/accum"
	"github.com/wxforge/wxforge/internal/archive"
	"github.com/wxforge/wxforge/internal/normalize"
	"github.com/wxforge/wxforge/internal/retry"
	"github.com/wxforge/wxforge/internal/state"
	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
	"github.com/wxforge/wxforge/pkg/config"
)

const (
	defaultWatchdogWindow = 5 * time.Minute
	watchdogTick          = 30 * time.Second
	stopTimeout           = 10 * time.Second
	batchBuffer           = 16
)

// Sink receives one snapshot per fully-processed timestamp.
type Sink func(accum.Snapshot)

// Session runs one station end to end.
type Session struct {
	id     string
	cfg    config.StationData
	logger *zap.SugaredLogger
	store  *state.Store
	sink   Sink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	adapter  stations.Adapter
	norm     *normalize.Normalizer
	engine   *accum.Engine
	watchdog *retry.Watchdog
	out      chan stations.Batch

	mu       sync.Mutex
	started  bool
	lastSnap time.Time
	cursor   archive.Cursor
}

// New builds a session. Only configuration problems fail construction;
// transport trouble is the run loop's business.
func New(ctx context.Context, cfg config.StationData, store *state.Store, sink Sink, logger *zap.SugaredLogger) (*Session, error) {
	caps := stations.Capabilities(cfg)
	loc, err := stations.Location(cfg)
	if err != nil {
		return nil, err
	}

	factory, err := factoryFor(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("station [%s]: %w", cfg.Name, err)
	}

	var st *accum.State
	if store != nil {
		st, err = store.LoadAccumulator(cfg.Name)
		if err != nil {
			return nil, fmt.Errorf("station [%s] restoring accumulator: %w", cfg.Name, err)
		}
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	slog := logger.Named(cfg.Type).With("station", cfg.Name)

	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		logger: slog,
		store:  store,
		sink:   sink,
		ctx:    sessionCtx,
		cancel: cancel,
		norm:   normalize.New(caps, slog),
		engine: accum.New(cfg.Name, caps, loc, st, slog),
		out:    make(chan stations.Batch, batchBuffer),
	}

	window := defaultWatchdogWindow
	if cfg.WatchdogSeconds > 0 {
		window = time.Duration(cfg.WatchdogSeconds) * time.Second
	}
	s.watchdog = retry.NewWatchdog(window, func(stopped bool) {
		if stopped {
			slog.Warnf("station [%s] data stopped, no ingestion for %s", cfg.Name, window)
		} else {
			slog.Infof("station [%s] data resumed", cfg.Name)
		}
	})

	sem := retry.NewSemaphore(cfg.MaxConcurrentRequests)
	s.adapter, err = factory(stations.Deps{
		Ctx:    sessionCtx,
		WG:     &s.wg,
		Config: cfg,
		Out:    s.out,
		Logger: slog,
		Sem:    sem,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	return s, nil
}

// ID returns the session's run identifier.
func (s *Session) ID() string { return s.id }

// StationName returns the configured station name.
func (s *Session) StationName() string { return s.cfg.Name }

// Start runs catch-up to completion, then the live loop. It is an
// error to start a session twice: catch-up must fully finish (or fail)
// before live ingestion begins, and only once.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("station [%s] session already started", s.cfg.Name)
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Infof("starting session %s for station [%s]", s.id, s.cfg.Name)

	if fetcher, ok := s.adapter.(archive.Fetcher); ok {
		s.runCatchUp(fetcher)
	}

	s.wg.Add(1)
	go s.drainLoop()

	if err := s.adapter.Start(); err != nil {
		s.cancel()
		return fmt.Errorf("station [%s] starting adapter: %w", s.cfg.Name, err)
	}

	s.wg.Add(1)
	go s.watchdogLoop()
	return nil
}

// Stop cancels everything and waits, bounded, for in-flight work to
// observe cancellation. The final accumulator state is persisted so a
// restart resumes where this run left off.
func (s *Session) Stop() error {
	s.logger.Infof("stopping session %s for station [%s]", s.id, s.cfg.Name)
	s.cancel()

	if err := s.adapter.Stop(); err != nil {
		s.logger.Errorf("station [%s] stopping adapter: %v", s.cfg.Name, err)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		s.logger.Warnf("station [%s] shutdown timed out after %s", s.cfg.Name, stopTimeout)
	}

	s.persistAccumulator()
	return nil
}

// runCatchUp brings the archive cursor up to now before any live data
// is folded. A failure is logged and live ingestion proceeds; the
// cursor stays at the last good position for the next run.
func (s *Session) runCatchUp(fetcher archive.Fetcher) {
	cursor := archive.Cursor{}
	if s.store != nil {
		var err error
		cursor, err = s.store.LoadCursor(s.cfg.Name)
		if err != nil {
			s.logger.Errorf("station [%s] loading cursor, catch-up skipped: %v", s.cfg.Name, err)
			return
		}
	}

	coord := archive.NewCoordinator(fetcher, s.norm, s.applyRecord, s.persistCursor, s.logger)
	final, err := coord.Run(s.ctx, cursor)
	s.mu.Lock()
	s.cursor = final
	s.mu.Unlock()
	if err != nil {
		s.logger.Errorf("station [%s] catch-up stopped: %v", s.cfg.Name, err)
		return
	}
	s.logger.Infof("station [%s] catch-up complete, cursor at %s",
		s.cfg.Name, final.LastApplied.Format(time.RFC3339))
}

// applyRecord folds one historical record. Catch-up runs strictly
// before the live drain loop, so the engine sees a single caller.
func (s *Session) applyRecord(ts time.Time, samples []types.NormalizedSample) {
	snap := s.engine.Apply(ts, samples)
	s.noteSnapshot(snap)
}

// persistCursor saves the cursor and the accumulator together after
// each chunk. Advancing the cursor without the folded state would let
// a crash mid-catch-up skip those records on restart with their
// accumulation lost.
func (s *Session) persistCursor(c archive.Cursor) error {
	s.mu.Lock()
	s.cursor = c
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveAccumulator(s.cfg.Name, s.engine.State()); err != nil {
		return err
	}
	return s.store.SaveCursor(s.cfg.Name, c)
}

// drainLoop is the live path: one batch in, one snapshot out.
func (s *Session) drainLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case batch := <-s.out:
			if len(batch) == 0 {
				continue
			}
			samples := make([]types.NormalizedSample, 0, len(batch))
			for _, r := range batch {
				samples = append(samples, s.norm.Normalize(r))
			}
			snap := s.engine.Apply(batch[0].Timestamp, samples)
			s.noteSnapshot(snap)
			s.persistAccumulator()
		}
	}
}

func (s *Session) noteSnapshot(snap accum.Snapshot) {
	s.watchdog.Feed()
	s.mu.Lock()
	s.lastSnap = snap.Timestamp
	s.mu.Unlock()
	if s.sink != nil {
		s.sink(snap)
	}
}

func (s *Session) persistAccumulator() {
	if s.store == nil {
		return
	}
	if err := s.store.SaveAccumulator(s.cfg.Name, s.engine.State()); err != nil {
		s.logger.Errorf("station [%s] persisting accumulator: %v", s.cfg.Name, err)
	}
}

func (s *Session) watchdogLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(watchdogTick)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.watchdog.Check()
		}
	}
}

// Status is the operator-facing view of one session.
type Status struct {
	SessionID    string    `json:"session_id"`
	Station      string    `json:"station"`
	Type         string    `json:"type"`
	DataStopped  bool      `json:"data_stopped"`
	LastGood     time.Time `json:"last_good,omitempty"`
	LastSnapshot time.Time `json:"last_snapshot,omitempty"`
	Anomalies    uint64    `json:"anomalies"`
	CursorAt     time.Time `json:"cursor_at,omitempty"`
}

// Status reports the session's current health.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		SessionID:    s.id,
		Station:      s.cfg.Name,
		Type:         s.cfg.Type,
		DataStopped:  s.watchdog.Stopped(),
		LastGood:     s.watchdog.LastGood(),
		LastSnapshot: s.lastSnap,
		Anomalies:    s.norm.Anomalies(),
		CursorAt:     s.cursor.LastApplied,
	}
}
