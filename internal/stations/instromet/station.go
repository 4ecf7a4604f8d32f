// Package instromet implements the Instromet console driver: serial
// command/response polling with checksummed comma-framed records.
package instromet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	serial "github.com/tarm/goserial"
	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/retry"
	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

const (
	defaultBaud         = 19200
	defaultPollInterval = 30 * time.Second
	reconnectDelay      = 30 * time.Second
	pollCommand         = "R1\r\n"
)

// Station is the Instromet serial adapter.
type Station struct {
	ctx    context.Context
	cancel context.CancelFunc
	deps   stations.Deps
	logger *zap.SugaredLogger

	port   io.ReadWriteCloser
	reader *bufio.Reader
}

// NewStation builds the adapter.
func NewStation(deps stations.Deps) (stations.Adapter, error) {
	if err := stations.ValidateSerial(deps.Config); err != nil {
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

// Start opens the serial port and launches the poll loop. An open
// failure is not fatal: the loop keeps retrying the connection.
func (s *Station) Start() error {
	s.logger.Infof("starting Instromet station [%s] on %s", s.deps.Config.Name, s.deps.Config.SerialDevice)

	if err := s.connect(); err != nil {
		s.logger.Warnf("station [%s] initial serial open failed, will retry: %v", s.deps.Config.Name, err)
	}

	s.deps.WG.Add(1)
	go s.pollLoop()
	return nil
}

// Stop cancels polling and closes the port.
func (s *Station) Stop() error {
	s.logger.Infof("stopping Instromet station [%s]", s.deps.Config.Name)
	s.cancel()
	if s.port != nil {
		s.port.Close()
	}
	return nil
}

func (s *Station) connect() error {
	baud := s.deps.Config.Baud
	if baud == 0 {
		baud = defaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{Name: s.deps.Config.SerialDevice, Baud: baud})
	if err != nil {
		return fmt.Errorf("opening %s at %d baud: %w", s.deps.Config.SerialDevice, baud, err)
	}
	s.port = port
	s.reader = bufio.NewReader(port)
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

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if s.port == nil {
				if err := s.connect(); err != nil {
					s.logger.Errorf("station [%s] serial reconnect failed: %v", s.deps.Config.Name, err)
					s.sleep(reconnectDelay)
					continue
				}
				s.logger.Infof("station [%s] serial port reopened", s.deps.Config.Name)
			}

			batch, err := s.pollOnce(interval)
			if err != nil {
				if s.ctx.Err() != nil {
					return
				}
				s.logger.Errorf("station [%s] poll cycle skipped: %v", s.deps.Config.Name, err)
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

// pollOnce runs one command/response exchange. The input buffer is
// drained before the command goes out so a stale echo from an aborted
// cycle cannot be misread as this cycle's response. A checksum failure
// gets one bounded re-read before the cycle is skipped.
func (s *Station) pollOnce(interval time.Duration) (stations.Batch, error) {
	if err := s.deps.Sem.Acquire(s.ctx); err != nil {
		return nil, err
	}
	defer s.deps.Sem.Release()

	s.flushInput()

	err := retry.SerialDefault.Do(s.ctx, func() error {
		if _, err := s.port.Write([]byte(pollCommand)); err != nil {
			return fmt.Errorf("%v: %w", err, types.ErrTransientTransport)
		}
		return nil
	})
	if err != nil {
		s.dropConnection()
		return nil, fmt.Errorf("writing poll command: %w", err)
	}

	ts := time.Now()
	var batch stations.Batch
	for attempt := 0; attempt < 2; attempt++ {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			s.dropConnection()
			return nil, fmt.Errorf("reading response: %w", err)
		}

		batch, err = parseFrame(line, s.deps.Config.Name, ts, interval)
		if err == nil {
			return batch, nil
		}
		s.logger.Warnf("station [%s] bad frame (attempt %d): %v", s.deps.Config.Name, attempt+1, err)
	}
	return nil, fmt.Errorf("no valid frame after re-read")
}

// flushInput discards whatever the console sent since the last cycle.
func (s *Station) flushInput() {
	for s.reader.Buffered() > 0 {
		if _, err := s.reader.Discard(s.reader.Buffered()); err != nil {
			return
		}
	}
}

// dropConnection closes the port so the next tick reconnects.
func (s *Station) dropConnection() {
	if s.port != nil {
		s.port.Close()
		s.port = nil
		s.reader = nil
	}
}

func (s *Station) sleep(d time.Duration) {
	select {
	case <-s.ctx.Done():
	case <-time.After(d):
	}
}
