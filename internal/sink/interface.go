// Package sink defines the downstream consumers of finished snapshots
// and the reference implementations: TimescaleDB persistence and NATS
// publishing.
package sink

import (
	"context"
	"sync"

	"github.com/wxforge/wxforge/internal/accum"
)

// Sink is a downstream consumer of snapshots. StartSink returns the
// channel the distributor fans snapshots into; the sink owns a
// goroutine that drains it until the context is cancelled.
type Sink interface {
	Name() string
	StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- accum.Snapshot
}

const sinkBuffer = 10
