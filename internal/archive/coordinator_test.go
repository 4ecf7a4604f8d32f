package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxforge/wxforge/internal/normalize"
	"github.com/wxforge/wxforge/internal/types"
)

type fakeFetcher struct {
	span    time.Duration
	limit   int // records per response, imitating a vendor page cap
	records []Record
	fails   map[int]error // request index -> error
	windows [][2]time.Time
}

func (f *fakeFetcher) MaxQuerySpan() time.Duration { return f.span }

func (f *fakeFetcher) FetchHistory(ctx context.Context, start, end time.Time) ([]Record, error) {
	idx := len(f.windows)
	f.windows = append(f.windows, [2]time.Time{start, end})
	if err, ok := f.fails[idx]; ok {
		return nil, err
	}

	var out []Record
	for _, r := range f.records {
		if !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
			out = append(out, r)
		}
	}
	if f.limit > 0 && len(out) > f.limit {
		out = out[:f.limit]
	}
	return out, nil
}

func tempRecord(ts time.Time, v float64) Record {
	return Record{
		Timestamp: ts,
		Readings: []types.SensorReading{{
			Timestamp: ts,
			Kind:      types.KindTemperature,
			Value:     v,
			Unit:      types.UnitCelsius,
			Valid:     true,
			Interval:  time.Hour,
		}},
	}
}

type applied struct {
	ts      time.Time
	samples []types.NormalizedSample
}

func newTestCoordinator(f *fakeFetcher, sink *[]applied, persist func(Cursor) error) *Coordinator {
	norm := normalize.New(types.StationCapabilities{}, nil)
	c := NewCoordinator(f, norm, func(ts time.Time, samples []types.NormalizedSample) {
		*sink = append(*sink, applied{ts, samples})
	}, persist, nil)
	return c
}

func TestCatchUpAppliesInAscendingOrder(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	start := now.Add(-3 * time.Hour)

	f := &fakeFetcher{
		span: 24 * time.Hour,
		records: []Record{
			// Deliberately out of order.
			tempRecord(start.Add(2*time.Hour), 22),
			tempRecord(start.Add(1*time.Hour), 21),
			tempRecord(start.Add(30*time.Minute), 20),
		},
	}

	var got []applied
	c := newTestCoordinator(f, &got, nil)
	c.now = func() time.Time { return now }

	cursor, err := c.Run(context.Background(), Cursor{LastApplied: start})
	require.NoError(t, err)

	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].ts.After(got[i-1].ts), "records must be applied in ascending order")
	}
	assert.False(t, cursor.LastApplied.Before(got[2].ts))
}

func TestCatchUpIsIdempotentAcrossRestarts(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	start := now.Add(-2 * time.Hour)

	f := &fakeFetcher{
		span:    24 * time.Hour,
		records: []Record{tempRecord(start.Add(time.Hour), 21)},
	}

	var got []applied
	c := newTestCoordinator(f, &got, nil)
	c.now = func() time.Time { return now }

	cursor, err := c.Run(context.Background(), Cursor{LastApplied: start})
	require.NoError(t, err)
	require.Len(t, got, 1)

	// A second run from the returned cursor must not re-apply anything:
	// the next fetch starts at cursor+1min, past the applied record.
	cursor2, err := c.Run(context.Background(), cursor)
	require.NoError(t, err)
	assert.Len(t, got, 1, "restarting catch-up must never double-apply records")
	assert.False(t, cursor2.LastApplied.Before(cursor.LastApplied))
}

func TestCatchUpChunksByMaxSpan(t *testing.T) {
	now := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	start := now.Add(-48 * time.Hour)

	f := &fakeFetcher{span: 24 * time.Hour}
	var got []applied
	c := newTestCoordinator(f, &got, nil)
	c.now = func() time.Time { return now }

	_, err := c.Run(context.Background(), Cursor{LastApplied: start})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(f.windows), 2, "a 48-hour gap needs at least two 24-hour chunks")
	for _, w := range f.windows {
		assert.LessOrEqual(t, w[1].Sub(w[0]), 24*time.Hour, "no window may exceed the vendor max span")
	}
}

func TestCatchUpRefetchesTruncatedWindow(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	start := now.Add(-3 * time.Hour)

	// Five records in a single 24-hour window, served two at a time.
	f := &fakeFetcher{
		span:  24 * time.Hour,
		limit: 2,
		records: []Record{
			tempRecord(start.Add(30*time.Minute), 20),
			tempRecord(start.Add(time.Hour), 21),
			tempRecord(start.Add(90*time.Minute), 22),
			tempRecord(start.Add(2*time.Hour), 23),
			tempRecord(start.Add(150*time.Minute), 24),
		},
	}

	var got []applied
	c := newTestCoordinator(f, &got, nil)
	c.now = func() time.Time { return now }

	cursor, err := c.Run(context.Background(), Cursor{LastApplied: start})
	require.NoError(t, err)

	require.Len(t, got, 5, "records beyond the vendor page cap must be refetched, not skipped")
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].ts.After(got[i-1].ts))
	}
	require.GreaterOrEqual(t, len(f.windows), 3, "the truncated window must be requested again from the last record")
	assert.False(t, cursor.LastApplied.Before(now))
}

func TestCatchUpStopsOnChunkFailure(t *testing.T) {
	now := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	start := now.Add(-48 * time.Hour)

	f := &fakeFetcher{
		span:    24 * time.Hour,
		records: []Record{tempRecord(start.Add(time.Hour), 19)},
		fails:   map[int]error{1: errors.New("gateway timeout")},
	}

	var got []applied
	var persisted []Cursor
	c := newTestCoordinator(f, &got, func(cur Cursor) error {
		persisted = append(persisted, cur)
		return nil
	})
	c.now = func() time.Time { return now }

	cursor, err := c.Run(context.Background(), Cursor{LastApplied: start})
	require.Error(t, err, "coordinator must stop, not skip ahead")

	assert.Len(t, got, 1, "records before the failure are applied")
	require.NotEmpty(t, persisted)
	assert.Equal(t, persisted[len(persisted)-1], cursor,
		"returned cursor matches the last persisted one, so the next run resumes cleanly")
}

func TestFirstRunUsesBoundedLookback(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	f := &fakeFetcher{span: 24 * time.Hour}
	var got []applied
	c := newTestCoordinator(f, &got, nil)
	c.now = func() time.Time { return now }

	_, err := c.Run(context.Background(), Cursor{})
	require.NoError(t, err)

	require.NotEmpty(t, f.windows)
	first := f.windows[0][0]
	assert.False(t, first.Before(now.Add(-25*time.Hour)),
		"a fresh install must not request unbounded history")
}

func TestCatchUpHonorsCancellation(t *testing.T) {
	now := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{span: 24 * time.Hour}
	var got []applied
	c := newTestCoordinator(f, &got, nil)
	c.now = func() time.Time { return now }

	_, err := c.Run(ctx, Cursor{LastApplied: now.Add(-time.Hour)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.windows)
}
