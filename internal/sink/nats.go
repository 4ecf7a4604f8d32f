package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/accum"
)

const defaultSubjectPrefix = "wx"

// NATS publishes one JSON-encoded snapshot per processed timestamp to
// <prefix>.observations.<station>.
type NATS struct {
	conn   *nats.Conn
	prefix string
	logger *zap.SugaredLogger
}

// NewNATS connects to the broker.
func NewNATS(url, subjectPrefix string, logger *zap.SugaredLogger) (*NATS, error) {
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}

	conn, err := nats.Connect(url,
		nats.Name("wxforge"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warnf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return &NATS{conn: conn, prefix: subjectPrefix, logger: logger}, nil
}

func (n *NATS) Name() string { return "nats" }

// StartSink launches the publisher.
func (n *NATS) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- accum.Snapshot {
	ch := make(chan accum.Snapshot, sinkBuffer)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer n.conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-ch:
				if err := n.publish(snap); err != nil {
					n.logger.Errorf("publishing snapshot for [%s]: %v", snap.Station, err)
				}
			}
		}
	}()
	return ch
}

func (n *NATS) publish(snap accum.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	subject := fmt.Sprintf("%s.observations.%s", n.prefix, snap.Station)
	return n.conn.Publish(subject, payload)
}
