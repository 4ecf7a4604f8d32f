// Package davislive implements the WeatherLink Live driver. The device
// exposes a local HTTP API; an HTTP request negotiates a UDP broadcast
// stream that delivers conditions every few seconds, with HTTP polling
// as the fallback when no broadcast port is configured or granted.
package davislive

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/retry"
	"github.com/wxforge/wxforge/internal/stations"
)

const (
	// broadcastInterval is the cadence the device broadcasts at.
	broadcastInterval = 2500 * time.Millisecond
	// requestedDuration is how long we ask each broadcast grant to last.
	requestedDuration = 3600
	minPollInterval   = 30 * time.Second
)

// Station is the WeatherLink Live adapter.
type Station struct {
	ctx    context.Context
	cancel context.CancelFunc
	deps   stations.Deps
	logger *zap.SugaredLogger

	udpConn         *net.UDPConn
	udpMu           sync.Mutex
	broadcastPort   int
	broadcastExpiry time.Time
}

// NewStation builds the adapter. Broadcast mode is used when a
// broadcast port is configured; otherwise the driver polls.
func NewStation(deps stations.Deps) (stations.Adapter, error) {
	if err := stations.ValidateNetwork(deps.Config); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(deps.Ctx)
	return &Station{
		ctx:    ctx,
		cancel: cancel,
		deps:   deps,
		logger: deps.Logger,
	}, nil
}

func (s *Station) StationName() string {
	return s.deps.Config.Name
}

// Start begins data collection in the configured mode.
func (s *Station) Start() error {
	s.logger.Infof("starting WeatherLink Live station [%s]", s.deps.Config.Name)

	if s.deps.Config.BroadcastPort != 0 {
		if err := s.startBroadcastMode(); err != nil {
			return fmt.Errorf("starting broadcast mode: %w", err)
		}
		return nil
	}

	s.deps.WG.Add(1)
	go s.runPollingMode()
	return nil
}

// Stop cancels collection and closes the UDP socket so the receiver
// goroutine unblocks immediately.
func (s *Station) Stop() error {
	s.logger.Infof("stopping WeatherLink Live station [%s]", s.deps.Config.Name)
	s.cancel()

	s.udpMu.Lock()
	if s.udpConn != nil {
		s.udpConn.Close()
		s.udpConn = nil
	}
	s.udpMu.Unlock()
	return nil
}

// startBroadcastMode negotiates the broadcast grant and starts the UDP
// receiver plus the refresh loop.
func (s *Station) startBroadcastMode() error {
	resp, err := s.requestBroadcast()
	if err != nil {
		return err
	}

	if resp.Data.Duration != requestedDuration {
		s.logger.Warnf("station [%s] granted broadcast duration %ds, requested %ds",
			s.deps.Config.Name, resp.Data.Duration, requestedDuration)
	}
	s.broadcastPort = resp.Data.BroadcastPort
	s.broadcastExpiry = time.Now().Add(time.Duration(resp.Data.Duration) * time.Second)
	s.logger.Infof("station [%s] real-time broadcast on port %d, expires %s",
		s.deps.Config.Name, s.broadcastPort, s.broadcastExpiry.Format(time.RFC3339))

	if err := s.startUDPReceiver(); err != nil {
		return err
	}

	s.deps.WG.Add(1)
	go s.refreshBroadcast()
	return nil
}

// requestBroadcast issues the negotiation request under the station's
// vendor-request semaphore and retry policy.
func (s *Station) requestBroadcast() (*RealTimeResponse, error) {
	if err := s.deps.Sem.Acquire(s.ctx); err != nil {
		return nil, err
	}
	defer s.deps.Sem.Release()

	var resp *RealTimeResponse
	err := retry.HTTPDefault.Do(s.ctx, func() error {
		var err error
		resp, err = StartRealTimeBroadcast(s.ctx, s.deps.Config.Hostname, requestedDuration)
		return err
	})
	return resp, err
}

// refreshBroadcast renews the grant at 90% of its lifetime. A changed
// port means the receiver has to rebind.
func (s *Station) refreshBroadcast() {
	defer s.deps.WG.Done()

	for {
		wait := time.Until(s.broadcastExpiry) * 9 / 10
		if wait < time.Minute {
			wait = time.Minute
		}

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(wait):
		}

		resp, err := s.requestBroadcast()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Errorf("station [%s] broadcast refresh failed: %v", s.deps.Config.Name, err)
			continue
		}

		if resp.Data.BroadcastPort != s.broadcastPort {
			s.logger.Infof("station [%s] broadcast port changed from %d to %d",
				s.deps.Config.Name, s.broadcastPort, resp.Data.BroadcastPort)
			s.udpMu.Lock()
			if s.udpConn != nil {
				s.udpConn.Close()
				s.udpConn = nil
			}
			s.udpMu.Unlock()

			s.broadcastPort = resp.Data.BroadcastPort
			if err := s.startUDPReceiver(); err != nil {
				s.logger.Errorf("station [%s] restarting UDP receiver: %v", s.deps.Config.Name, err)
				continue
			}
		}

		s.broadcastExpiry = time.Now().Add(time.Duration(resp.Data.Duration) * time.Second)
		s.logger.Debugf("station [%s] broadcast refreshed, expires %s",
			s.deps.Config.Name, s.broadcastExpiry.Format(time.RFC3339))
	}
}

// runPollingMode polls /v1/current_conditions at the configured
// interval, clamped to the device-safe minimum.
func (s *Station) runPollingMode() {
	defer s.deps.WG.Done()

	interval := 60 * time.Second
	if s.deps.Config.PollIntervalSeconds > 0 {
		interval = time.Duration(s.deps.Config.PollIntervalSeconds) * time.Second
	}
	if interval < minPollInterval {
		s.logger.Warnf("station [%s] poll interval too short, using %s", s.deps.Config.Name, minPollInterval)
		interval = minPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.logger.Infof("station [%s] HTTP polling every %s", s.deps.Config.Name, interval)

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
			s.emit(batch)
		}
	}
}

func (s *Station) poll(interval time.Duration) (stations.Batch, error) {
	if err := s.deps.Sem.Acquire(s.ctx); err != nil {
		return nil, err
	}
	defer s.deps.Sem.Release()

	var resp *CurrentConditionsResponse
	err := retry.HTTPDefault.Do(s.ctx, func() error {
		var err error
		resp, err = GetCurrentConditions(s.ctx, s.deps.Config.Hostname)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decode(&resp.Data, s.deps.Config.Name, interval), nil
}

func (s *Station) emit(batch stations.Batch) {
	if len(batch) == 0 {
		return
	}
	select {
	case s.deps.Out <- batch:
	case <-s.ctx.Done():
	}
}
