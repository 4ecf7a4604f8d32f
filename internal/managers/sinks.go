// Package managers wires configured stations and sinks together: the
// sink manager owns the snapshot distributor, the station manager owns
// the per-station sessions.
package managers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/accum"
	"github.com/wxforge/wxforge/internal/sink"
	"github.com/wxforge/wxforge/pkg/config"
)

// SinkManager fans finished snapshots out to every configured sink.
type SinkManager struct {
	sinks       []registeredSink
	distributor chan accum.Snapshot
	logger      *zap.SugaredLogger
}

type registeredSink struct {
	sink sink.Sink
	ch   chan<- accum.Snapshot
}

// NewSinkManager constructs the configured sinks and starts the
// distributor.
func NewSinkManager(ctx context.Context, wg *sync.WaitGroup, sinks *config.SinkData, logger *zap.SugaredLogger) (*SinkManager, error) {
	m := &SinkManager{
		distributor: make(chan accum.Snapshot, 20),
		logger:      logger,
	}

	if sinks != nil && sinks.TimescaleDB != nil && sinks.TimescaleDB.ConnectionString != "" {
		ts, err := sink.NewTimescaleDB(ctx, sinks.TimescaleDB.ConnectionString, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add TimescaleDB sink: %w", err)
		}
		m.add(ctx, wg, ts)
	}

	if sinks != nil && sinks.NATS != nil && sinks.NATS.URL != "" {
		n, err := sink.NewNATS(sinks.NATS.URL, sinks.NATS.SubjectPrefix, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add NATS sink: %w", err)
		}
		m.add(ctx, wg, n)
	}

	wg.Add(1)
	go m.distribute(ctx, wg)
	return m, nil
}

func (m *SinkManager) add(ctx context.Context, wg *sync.WaitGroup, s sink.Sink) {
	m.logger.Infof("starting %s sink", s.Name())
	m.sinks = append(m.sinks, registeredSink{sink: s, ch: s.StartSink(ctx, wg)})
}

// Publish is the session sink callback: it hands a snapshot to the
// distributor without blocking ingestion when sinks fall behind.
func (m *SinkManager) Publish(snap accum.Snapshot) {
	select {
	case m.distributor <- snap:
	default:
		m.logger.Warnf("snapshot distributor full, dropping snapshot for [%s]", snap.Station)
	}
}

// distribute fans snapshots out to every sink channel.
func (m *SinkManager) distribute(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-m.distributor:
			for _, s := range m.sinks {
				select {
				case s.ch <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
