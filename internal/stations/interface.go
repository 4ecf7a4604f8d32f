// Package stations defines the transport adapter interface every vendor
// driver implements, plus helpers shared by the drivers.
package stations

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/retry"
	"github.com/wxforge/wxforge/internal/types"
	"github.com/wxforge/wxforge/pkg/config"
)

// Adapter owns one physical or network connection to a weather station
// and delivers decoded raw readings to its session.
//
// Start begins delivery and is safe to call at most once per instance.
// Stop guarantees that no further batch is sent after it returns: the
// adapter cancels its context, closes its connection, and waits for
// in-flight callbacks to drain.
type Adapter interface {
	Start() error
	Stop() error
	StationName() string
}

// Batch is one I/O event's worth of readings, all for the same instant.
type Batch []types.SensorReading

// Deps carries everything a driver needs from its session. The session
// owns the semaphore and the context; drivers never create process-wide
// singletons.
type Deps struct {
	Ctx    context.Context
	WG     *sync.WaitGroup
	Config config.StationData
	Out    chan<- Batch
	Logger *zap.SugaredLogger
	Sem    retry.Semaphore
}

// Factory creates an adapter from station configuration. Returning an
// error marks a configuration problem: that session fails to start,
// other stations are unaffected.
type Factory func(Deps) (Adapter, error)
