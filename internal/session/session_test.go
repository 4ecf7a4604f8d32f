package session

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/accum"
	"github.com/wxforge/wxforge/internal/archive"
	"github.com/wxforge/wxforge/internal/state"
	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
	"github.com/wxforge/wxforge/pkg/config"
)

// fakeAdapter records lifecycle events and optionally serves history.
type fakeAdapter struct {
	deps    stations.Deps
	mu      sync.Mutex
	events  []string
	history []archive.Record
}

func (f *fakeAdapter) note(event string) {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
}

func (f *fakeAdapter) Start() error       { f.note("start"); return nil }
func (f *fakeAdapter) Stop() error        { f.note("stop"); return nil }
func (f *fakeAdapter) StationName() string { return f.deps.Config.Name }

func (f *fakeAdapter) FetchHistory(ctx context.Context, start, end time.Time) ([]archive.Record, error) {
	f.note("fetch")
	var out []archive.Record
	for _, rec := range f.history {
		if rec.Timestamp.After(start.Add(-time.Minute)) && !rec.Timestamp.After(end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeAdapter) MaxQuerySpan() time.Duration { return 48 * time.Hour }

func installFake(t *testing.T, history []archive.Record) *fakeAdapter {
	t.Helper()
	fake := &fakeAdapter{history: history}
	Register("fake", func(deps stations.Deps) (stations.Adapter, error) {
		fake.deps = deps
		return fake, nil
	})
	return fake
}

func reading(ts time.Time, kind types.Kind, value float64, unit types.Unit) types.SensorReading {
	return types.SensorReading{
		Timestamp: ts,
		Station:   "shed",
		Kind:      kind,
		Value:     value,
		Unit:      unit,
		Valid:     true,
		Interval:  time.Minute,
	}
}

func TestCatchUpRunsBeforeLiveLoop(t *testing.T) {
	ts := time.Now().Add(-time.Hour)
	fake := installFake(t, []archive.Record{
		{Timestamp: ts, Readings: []types.SensorReading{
			reading(ts, types.KindTemperature, 18.0, types.UnitCelsius),
		}},
	})

	var snaps []accum.Snapshot
	var snapMu sync.Mutex
	sink := func(s accum.Snapshot) {
		snapMu.Lock()
		snaps = append(snaps, s)
		snapMu.Unlock()
	}

	s, err := New(context.Background(), config.StationData{Name: "shed", Type: "fake"}, nil, sink, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	fake.mu.Lock()
	events := append([]string(nil), fake.events...)
	fake.mu.Unlock()
	require.NotEmpty(t, events)
	assert.Equal(t, "fetch", events[0], "catch-up must complete before the adapter starts")
	assert.Contains(t, events, "start")

	snapMu.Lock()
	defer snapMu.Unlock()
	require.Len(t, snaps, 1, "one snapshot per applied historical record")
	assert.Equal(t, 18.0, snaps[0].TempC)
}

func TestLiveBatchProducesSnapshot(t *testing.T) {
	fake := installFake(t, nil)

	snapCh := make(chan accum.Snapshot, 1)
	s, err := New(context.Background(), config.StationData{Name: "shed", Type: "fake"}, nil,
		func(snap accum.Snapshot) { snapCh <- snap }, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	ts := time.Now()
	fake.deps.Out <- stations.Batch{
		reading(ts, types.KindTemperature, 21.5, types.UnitCelsius),
		reading(ts, types.KindHumidity, 60, types.UnitPercent),
	}

	select {
	case snap := <-snapCh:
		assert.Equal(t, 21.5, snap.TempC)
		assert.True(t, snap.HumidityOK)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot produced for live batch")
	}

	status := s.Status()
	assert.False(t, status.DataStopped)
	assert.False(t, status.LastGood.IsZero())
}

func TestCatchUpPersistsAccumulatorWithCursor(t *testing.T) {
	ts := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	installFake(t, []archive.Record{
		{Timestamp: ts, Readings: []types.SensorReading{
			reading(ts, types.KindTemperature, 12.0, types.UnitCelsius),
		}},
	})

	store, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()

	s, err := New(context.Background(), config.StationData{Name: "shed", Type: "fake"}, store, nil, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	// Catch-up completed inside Start. The per-chunk persist must save
	// both halves: a cursor advanced past records whose accumulation
	// was never snapshotted would lose them forever on restart.
	st, err := store.LoadAccumulator("shed")
	require.NoError(t, err)
	require.NotNil(t, st, "accumulator must be persisted alongside the cursor during catch-up")
	assert.Equal(t, 1, st.TempSamples)

	cursor, err := store.LoadCursor("shed")
	require.NoError(t, err)
	assert.False(t, cursor.IsZero())
	assert.False(t, cursor.LastApplied.Before(ts), "cursor must cover the applied record")
}

func TestDoubleStartRejected(t *testing.T) {
	installFake(t, nil)

	s, err := New(context.Background(), config.StationData{Name: "shed", Type: "fake"}, nil, nil, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.Start())
}

func TestUnknownTypeIsConfigurationError(t *testing.T) {
	_, err := New(context.Background(), config.StationData{Name: "shed", Type: "nonesuch"}, nil, nil, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
