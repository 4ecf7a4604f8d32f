// Package ecowitt implements the Ecowitt driver. Real-time data comes
// from the LAN gateway when a hostname is configured, otherwise from
// api.ecowitt.net; both paths share the circuit breaker. History for
// gap catch-up always goes through the cloud.
package ecowitt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/archive"
	"github.com/wxforge/wxforge/internal/retry"
	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

const (
	defaultPollInterval = 60 * time.Second
	// historyMaxSpan bounds one history request; the cloud rejects
	// wider windows at 5-minute resolution.
	historyMaxSpan = 24 * time.Hour
)

// Station is the Ecowitt adapter.
type Station struct {
	ctx    context.Context
	cancel context.CancelFunc
	deps   stations.Deps
	logger *zap.SugaredLogger
	client *Client
	local  *localClient
	cb     *gobreaker.CircuitBreaker
}

// NewStation builds the adapter. A hostname selects local gateway
// polling; cloud credentials are required otherwise, and optional in
// local mode where they enable history catch-up.
func NewStation(deps stations.Deps) (stations.Adapter, error) {
	cfg := deps.Config
	hasCreds := cfg.APIKey != "" && cfg.ApplicationKey != "" && cfg.DeviceMAC != ""
	if cfg.Hostname == "" && !hasCreds {
		return nil, fmt.Errorf("station [%s] requires a gateway hostname or api_key, application_key, and device_mac: %w",
			cfg.Name, types.ErrConfiguration)
	}

	ctx, cancel := context.WithCancel(deps.Ctx)
	s := &Station{
		ctx:    ctx,
		cancel: cancel,
		deps:   deps,
		logger: deps.Logger,
	}
	if cfg.Hostname != "" {
		s.local = newLocalClient(cfg.Hostname)
	}
	if hasCreds {
		s.client = NewClient(cfg.ApplicationKey, cfg.APIKey, cfg.DeviceMAC)
	}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ecowitt-" + cfg.Name,
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			deps.Logger.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return s, nil
}

func (s *Station) StationName() string {
	return s.deps.Config.Name
}

// Start begins the polling loop.
func (s *Station) Start() error {
	s.logger.Infof("starting Ecowitt station [%s]", s.deps.Config.Name)
	s.deps.WG.Add(1)
	go s.pollLoop()
	return nil
}

// Stop cancels polling.
func (s *Station) Stop() error {
	s.logger.Infof("stopping Ecowitt station [%s]", s.deps.Config.Name)
	s.cancel()
	return nil
}

func (s *Station) pollLoop() {
	defer s.deps.WG.Done()

	interval := defaultPollInterval
	if s.deps.Config.PollIntervalSeconds > 0 {
		interval = time.Duration(s.deps.Config.PollIntervalSeconds) * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	source := "Ecowitt cloud"
	if s.local != nil {
		source = "gateway " + s.deps.Config.Hostname
	}
	s.logger.Infof("station [%s] polling %s every %s", s.deps.Config.Name, source, interval)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			batch, err := s.poll(interval)
			if err != nil {
				if s.ctx.Err() != nil {
					return
				}
				s.logger.Errorf("station [%s] poll failed: %v", s.deps.Config.Name, err)
				continue
			}
			if len(batch) == 0 {
				continue
			}
			select {
			case s.deps.Out <- batch:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

// poll fetches one observation set from whichever source is
// configured. The circuit breaker sits inside the retry policy so an
// open circuit fails fast instead of burning the retry budget.
func (s *Station) poll(interval time.Duration) (stations.Batch, error) {
	if err := s.deps.Sem.Acquire(s.ctx); err != nil {
		return nil, err
	}
	defer s.deps.Sem.Release()

	fetch := func() (interface{}, error) { return s.client.RealTime(s.ctx) }
	if s.local != nil {
		fetch = func() (interface{}, error) { return s.local.LiveData(s.ctx) }
	}

	var result interface{}
	err := retry.HTTPDefault.Do(s.ctx, func() error {
		var err error
		result, err = s.cb.Execute(fetch)
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return fmt.Errorf("circuit open: %v: %w", err, types.ErrVendorRejection)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	name := s.deps.Config.Name
	switch data := result.(type) {
	case *localLiveData:
		return decodeLocal(data, name, interval), nil
	case *realTimeData:
		return decodeRealTime(data, name, interval), nil
	default:
		return nil, fmt.Errorf("unexpected payload type: %w", types.ErrMalformedPayload)
	}
}

// FetchHistory implements archive.Fetcher against the cloud history
// endpoint. Local-only stations need cloud credentials for catch-up.
func (s *Station) FetchHistory(ctx context.Context, start, end time.Time) ([]archive.Record, error) {
	if s.client == nil {
		return nil, fmt.Errorf("station [%s] history requires api_key, application_key, and device_mac: %w",
			s.deps.Config.Name, types.ErrConfiguration)
	}
	if err := s.deps.Sem.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.deps.Sem.Release()

	var data *historyData
	err := retry.HTTPDefault.Do(ctx, func() error {
		var err error
		data, err = s.client.History(ctx, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodeHistory(data, s.deps.Config.Name), nil
}

// MaxQuerySpan implements archive.Fetcher.
func (s *Station) MaxQuerySpan() time.Duration {
	return historyMaxSpan
}
