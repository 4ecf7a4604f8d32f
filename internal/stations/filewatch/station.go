// Package filewatch implements the file-drop driver: push documents
// written into a watched directory are ingested and then removed.
// Useful for air-gapped loggers that sync observations over rsync or
// similar.
package filewatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

// settleDelay is how long after the last write event a file is left
// alone, so a half-synced document is not read mid-copy.
const settleDelay = 500 * time.Millisecond

// Station is the file-drop adapter.
type Station struct {
	ctx     context.Context
	cancel  context.CancelFunc
	deps    stations.Deps
	logger  *zap.SugaredLogger
	watcher *fsnotify.Watcher

	// pending maps a path to its settle timer. Entries are removed when
	// the timer fires so the map stays bounded over long runs.
	pendingMu sync.Mutex
	pending   map[string]*time.Timer
}

// NewStation builds the adapter. The watch directory must exist.
func NewStation(deps stations.Deps) (stations.Adapter, error) {
	cfg := deps.Config
	if cfg.WatchDir == "" {
		return nil, fmt.Errorf("station [%s] requires watch_dir: %w", cfg.Name, types.ErrConfiguration)
	}
	info, err := os.Stat(cfg.WatchDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("station [%s] watch_dir %q is not a directory: %w",
			cfg.Name, cfg.WatchDir, types.ErrConfiguration)
	}

	ctx, cancel := context.WithCancel(deps.Ctx)
	return &Station{
		ctx:     ctx,
		cancel:  cancel,
		deps:    deps,
		logger:  deps.Logger,
		pending: make(map[string]*time.Timer),
	}, nil
}

func (s *Station) StationName() string {
	return s.deps.Config.Name
}

// Start begins watching. Files already present in the directory are
// ingested first so a backlog accumulated while the daemon was down is
// not lost.
func (s *Station) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("station [%s] creating watcher: %w", s.deps.Config.Name, err)
	}
	if err := watcher.Add(s.deps.Config.WatchDir); err != nil {
		watcher.Close()
		return fmt.Errorf("station [%s] watching %s: %w", s.deps.Config.Name, s.deps.Config.WatchDir, err)
	}
	s.watcher = watcher

	s.logger.Infof("starting file watch station [%s] on %s", s.deps.Config.Name, s.deps.Config.WatchDir)

	s.deps.WG.Add(1)
	go s.watchLoop()
	return nil
}

// Stop cancels the watch loop and closes the watcher.
func (s *Station) Stop() error {
	s.logger.Infof("stopping file watch station [%s]", s.deps.Config.Name)
	s.cancel()
	if s.watcher != nil {
		s.watcher.Close()
	}
	return nil
}

func (s *Station) watchLoop() {
	defer s.deps.WG.Done()

	s.ingestBacklog()

	for {
		select {
		case <-s.ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !isDocumentFile(event.Name) {
				continue
			}
			s.scheduleIngest(event.Name)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Errorf("station [%s] watcher error: %v", s.deps.Config.Name, err)
		}
	}
}

// scheduleIngest arms (or re-arms, while writes keep landing) the
// settle timer for path and drops the map entry once it fires.
func (s *Station) scheduleIngest(path string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	if timer, exists := s.pending[path]; exists {
		timer.Reset(settleDelay)
		return
	}
	s.pending[path] = time.AfterFunc(settleDelay, func() {
		s.pendingMu.Lock()
		delete(s.pending, path)
		s.pendingMu.Unlock()
		s.ingestFile(path)
	})
}

func (s *Station) ingestBacklog() {
	entries, err := os.ReadDir(s.deps.Config.WatchDir)
	if err != nil {
		s.logger.Errorf("station [%s] reading backlog: %v", s.deps.Config.Name, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isDocumentFile(entry.Name()) {
			continue
		}
		s.ingestFile(filepath.Join(s.deps.Config.WatchDir, entry.Name()))
	}
}

// ingestFile decodes one dropped document and removes the file. A
// malformed file is renamed aside instead of deleted so the sender can
// be debugged.
func (s *Station) ingestFile(path string) {
	if s.ctx.Err() != nil {
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Errorf("station [%s] reading %s: %v", s.deps.Config.Name, path, err)
		return
	}

	batch, err := stations.DecodeDocument(raw, s.deps.Config.Name)
	if err != nil {
		s.logger.Warnf("station [%s] rejected document %s: %v", s.deps.Config.Name, path, err)
		if renameErr := os.Rename(path, path+".rejected"); renameErr != nil {
			s.logger.Errorf("station [%s] quarantining %s: %v", s.deps.Config.Name, path, renameErr)
		}
		return
	}

	select {
	case s.deps.Out <- batch:
	case <-s.ctx.Done():
		return
	}

	if err := os.Remove(path); err != nil {
		s.logger.Errorf("station [%s] removing %s: %v", s.deps.Config.Name, path, err)
	}
}

func isDocumentFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}
