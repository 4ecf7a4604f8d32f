package managers

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/session"
	"github.com/wxforge/wxforge/internal/state"
	"github.com/wxforge/wxforge/internal/types"
	"github.com/wxforge/wxforge/pkg/config"
)

// StationManager owns one session per enabled station.
type StationManager struct {
	ctx    context.Context
	logger *zap.SugaredLogger

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewStationManager builds sessions for every enabled station. A
// configuration error in one station is logged and skipped; the other
// stations are unaffected.
func NewStationManager(ctx context.Context, provider config.ConfigProvider, store *state.Store, sinks *SinkManager, logger *zap.SugaredLogger) (*StationManager, error) {
	cfgs, err := provider.GetStations()
	if err != nil {
		return nil, err
	}

	m := &StationManager{
		ctx:      ctx,
		logger:   logger,
		sessions: make(map[string]*session.Session),
	}

	for _, cfg := range cfgs {
		if !cfg.Enabled {
			logger.Infof("skipping disabled station [%s]", cfg.Name)
			continue
		}

		s, err := session.New(ctx, cfg, store, sinks.Publish, logger)
		if err != nil {
			if errors.Is(err, types.ErrConfiguration) {
				logger.Errorf("station [%s] misconfigured, skipping: %v", cfg.Name, err)
				continue
			}
			return nil, err
		}
		m.sessions[cfg.Name] = s
	}

	return m, nil
}

// StartStations starts every session. A start failure stops only that
// station.
func (m *StationManager) StartStations() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, s := range m.sessions {
		m.logger.Infof("starting station [%s]", name)
		if err := s.Start(); err != nil {
			m.logger.Errorf("station [%s] failed to start: %v", name, err)
		}
	}
}

// StopStations stops every session, each with its own bounded wait.
func (m *StationManager) StopStations() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, s := range m.sessions {
		if err := s.Stop(); err != nil {
			m.logger.Errorf("station [%s] failed to stop cleanly: %v", name, err)
		}
	}
}

// Statuses reports every session's health, for the status endpoint.
func (m *StationManager) Statuses() []session.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]session.Status, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Status())
	}
	return out
}
