// Package genericjson implements the generic JSON push driver: senders
// open a TCP connection and write newline-delimited push documents. The
// listener runs on a gnet event loop so one goroutine serves every
// sender.
package genericjson

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

// maxLineBytes bounds one push document; a sender that exceeds it is
// disconnected rather than allowed to grow the inbound buffer forever.
const maxLineBytes = 64 * 1024

// Station is the TCP push adapter.
type Station struct {
	ctx    context.Context
	cancel context.CancelFunc
	deps   stations.Deps
	logger *zap.SugaredLogger
	addr   string

	events *pushEvents
}

// pushEvents is the gnet handler. It owns no station state beyond what
// it needs to decode and forward.
type pushEvents struct {
	gnet.BuiltinEventEngine

	eng     gnet.Engine
	engCh   chan gnet.Engine
	station string
	logger  *zap.SugaredLogger
	ctx     context.Context
	out     chan<- stations.Batch
}

// NewStation builds the adapter. Port is required; senders connect to
// it from anywhere, so documents are validated against the configured
// station name.
func NewStation(deps stations.Deps) (stations.Adapter, error) {
	if deps.Config.Port == "" {
		return nil, fmt.Errorf("station [%s] requires a listen port: %w",
			deps.Config.Name, types.ErrConfiguration)
	}

	ctx, cancel := context.WithCancel(deps.Ctx)
	return &Station{
		ctx:    ctx,
		cancel: cancel,
		deps:   deps,
		logger: deps.Logger,
		addr:   "tcp://:" + deps.Config.Port,
	}, nil
}

func (s *Station) StationName() string {
	return s.deps.Config.Name
}

// Start launches the event loop.
func (s *Station) Start() error {
	s.logger.Infof("starting generic JSON push station [%s] on %s", s.deps.Config.Name, s.addr)

	s.events = &pushEvents{
		engCh:   make(chan gnet.Engine, 1),
		station: s.deps.Config.Name,
		logger:  s.logger,
		ctx:     s.ctx,
		out:     s.deps.Out,
	}

	s.deps.WG.Add(1)
	go func() {
		defer s.deps.WG.Done()
		if err := gnet.Run(s.events, s.addr, gnet.WithReuseAddr(true)); err != nil {
			s.logger.Errorf("station [%s] push listener exited: %v", s.deps.Config.Name, err)
		}
	}()
	return nil
}

// Stop shuts the event loop down, bounded so a wedged engine cannot
// hang shutdown.
func (s *Station) Stop() error {
	s.logger.Infof("stopping generic JSON push station [%s]", s.deps.Config.Name)
	s.cancel()

	if s.events == nil {
		return nil
	}
	select {
	case eng := <-s.events.engCh:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return eng.Stop(ctx)
	default:
		return nil
	}
}

func (e *pushEvents) OnBoot(eng gnet.Engine) gnet.Action {
	e.eng = eng
	e.engCh <- eng
	return gnet.None
}

// OnTraffic frames newline-delimited documents out of the inbound
// buffer. Partial lines stay buffered until the rest arrives.
func (e *pushEvents) OnTraffic(c gnet.Conn) gnet.Action {
	for {
		buf, err := c.Peek(-1)
		if err != nil || len(buf) == 0 {
			return gnet.None
		}

		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			if len(buf) > maxLineBytes {
				e.logger.Warnf("station [%s] push sender %s exceeded line limit, closing",
					e.station, c.RemoteAddr())
				return gnet.Close
			}
			return gnet.None
		}

		line := bytes.TrimSpace(buf[:idx])
		if len(line) > 0 {
			e.handleLine(line, c)
		}
		c.Discard(idx + 1)
	}
}

func (e *pushEvents) handleLine(line []byte, c gnet.Conn) {
	batch, err := stations.DecodeDocument(line, e.station)
	if err != nil {
		e.logger.Warnf("station [%s] rejected push document from %s: %v",
			e.station, c.RemoteAddr(), err)
		return
	}

	select {
	case e.out <- batch:
	case <-e.ctx.Done():
	}
}
