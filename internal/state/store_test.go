package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxforge/wxforge/internal/accum"
	"github.com/wxforge/wxforge/internal/archive"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCursorRoundTrip(t *testing.T) {
	s := openTestStore(t)

	cur, err := s.LoadCursor("backyard")
	require.NoError(t, err)
	assert.True(t, cur.IsZero(), "unknown station yields a zero cursor")

	want := archive.Cursor{LastApplied: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)}
	require.NoError(t, s.SaveCursor("backyard", want))

	got, err := s.LoadCursor("backyard")
	require.NoError(t, err)
	assert.True(t, got.LastApplied.Equal(want.LastApplied))

	// Upsert overwrites.
	want.LastApplied = want.LastApplied.Add(time.Hour)
	require.NoError(t, s.SaveCursor("backyard", want))
	got, err = s.LoadCursor("backyard")
	require.NoError(t, err)
	assert.True(t, got.LastApplied.Equal(want.LastApplied))
}

func TestAccumulatorRoundTrip(t *testing.T) {
	s := openTestStore(t)

	st, err := s.LoadAccumulator("backyard")
	require.NoError(t, err)
	assert.Nil(t, st, "unknown station yields nil state")

	want := &accum.State{
		DayRainMM:       3.2,
		WindRunKM:       41.5,
		ChillHours:      120.25,
		RainCounterMM:   1089.4,
		RainCounterSeen: true,
		LightningDistKM: 12,
		LightningAt:     time.Date(2025, 5, 30, 19, 4, 0, 0, time.UTC),
		RolloverDone:    true,
	}
	want.Day.TempHigh = accum.Extreme{
		Value: 31.2,
		At:    time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC),
		Set:   true,
	}

	require.NoError(t, s.SaveAccumulator("backyard", want))

	got, err := s.LoadAccumulator("backyard")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.InDelta(t, want.DayRainMM, got.DayRainMM, 1e-9)
	assert.InDelta(t, want.WindRunKM, got.WindRunKM, 1e-9)
	assert.InDelta(t, want.ChillHours, got.ChillHours, 1e-9)
	assert.True(t, got.RainCounterSeen)
	assert.True(t, got.LightningAt.Equal(want.LightningAt))
	assert.True(t, got.RolloverDone)
	assert.True(t, got.Day.TempHigh.Set)
	assert.InDelta(t, 31.2, got.Day.TempHigh.Value, 1e-9)
}

func TestStationsAreIsolated(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveCursor("a", archive.Cursor{LastApplied: time.Now()}))

	cur, err := s.LoadCursor("b")
	require.NoError(t, err)
	assert.True(t, cur.IsZero())
}
