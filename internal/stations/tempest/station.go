// Package tempest implements the WeatherFlow Tempest driver: live data
// arrives as UDP broadcast JSON envelopes on port 50222, historical
// records come from the REST observations endpoint.
package tempest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

const defaultBroadcastPort = 50222

// Station is the Tempest adapter.
type Station struct {
	ctx    context.Context
	cancel context.CancelFunc
	deps   stations.Deps
	logger *zap.SugaredLogger

	conn *net.UDPConn

	// counterMu guards the synthetic rain counter shared between the
	// history fetch path and the live receiver.
	counterMu sync.Mutex
	counterMM float64
}

// NewStation builds the adapter. The UDP path needs nothing beyond the
// port; the history path additionally needs an API token and device ID.
func NewStation(deps stations.Deps) (stations.Adapter, error) {
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

// Start binds the broadcast port and starts the receive loop.
func (s *Station) Start() error {
	port := s.deps.Config.BroadcastPort
	if port == 0 {
		port = defaultBroadcastPort
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return fmt.Errorf("station [%s] binding UDP port %d: %w: %w",
			s.deps.Config.Name, port, err, types.ErrConfiguration)
	}
	s.conn = conn

	s.logger.Infof("starting Tempest station [%s] on UDP port %d", s.deps.Config.Name, port)
	s.deps.WG.Add(1)
	go s.receiveLoop()
	return nil
}

// Stop cancels the receiver and closes the socket.
func (s *Station) Stop() error {
	s.logger.Infof("stopping Tempest station [%s]", s.deps.Config.Name)
	s.cancel()
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}

// receiveLoop reads broadcast envelopes until shutdown. A single bad
// packet never terminates the loop.
func (s *Station) receiveLoop() {
	defer s.deps.WG.Done()
	defer s.logger.Infof("station [%s] UDP receiver stopped", s.deps.Config.Name)

	buf := make([]byte, 4096)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if s.ctx.Err() != nil || !resumeAfterReadError(err) {
				return
			}
			// A transient socket error must not end live ingestion.
			s.logger.Errorf("station [%s] UDP read: %v", s.deps.Config.Name, err)
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		batch := s.decodePacket(buf[:n])
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

// resumeAfterReadError reports whether the receive loop should keep
// running after a non-timeout read error. A closed socket ends the
// loop; anything else is transient.
func resumeAfterReadError(err error) bool {
	return !errors.Is(err, net.ErrClosed)
}

func (s *Station) decodePacket(raw []byte) stations.Batch {
	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Errorf("station [%s] malformed packet: %v", s.deps.Config.Name, err)
		return nil
	}

	name := s.deps.Config.Name
	switch msg.Type {
	case "obs_st":
		if len(msg.Obs) == 0 {
			return nil
		}
		s.counterMu.Lock()
		batch, counter := decodeObs(msg.Obs[0], name, s.counterMM)
		s.counterMM = counter
		s.counterMu.Unlock()
		return batch
	case "rapid_wind":
		return decodeRapidWind(msg.Ob, name)
	case "evt_strike":
		return decodeStrike(msg.Evt, name)
	default:
		// hub_status, device_status and friends carry no observations
		return nil
	}
}
