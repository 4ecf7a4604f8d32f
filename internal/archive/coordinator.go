package archive

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/normalize"
	"github.com/wxforge/wxforge/internal/types"
)

// Record is one decoded archive entry: a timestamp and the raw readings
// the vendor reported for it.
type Record struct {
	Timestamp time.Time
	Readings  []types.SensorReading
}

// Fetcher is the abstract historical-query interface a vendor driver
// implements for catch-up. Implementations must honor MaxQuerySpan, the
// widest window one request may cover. A response may stop short of the
// requested end (vendor page caps), but must never omit records older
// than the newest one it returns: the coordinator resumes after that
// record and would skip interior holes.
type Fetcher interface {
	FetchHistory(ctx context.Context, start, end time.Time) ([]Record, error)
	MaxQuerySpan() time.Duration
}

// defaultLookback bounds the first-ever catch-up so a fresh install
// does not download unbounded vendor history.
const defaultLookback = 24 * time.Hour

// Coordinator drives a Fetcher from the persisted cursor up to now.
type Coordinator struct {
	fetcher  Fetcher
	norm     *normalize.Normalizer
	apply    func(ts time.Time, samples []types.NormalizedSample)
	persist  func(Cursor) error
	lookback time.Duration
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewCoordinator wires a coordinator. apply receives each record's
// normalized samples in ascending timestamp order; persist is called
// after every chunk with the advanced cursor.
func NewCoordinator(fetcher Fetcher, norm *normalize.Normalizer, apply func(time.Time, []types.NormalizedSample), persist func(Cursor) error, logger *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		fetcher:  fetcher,
		norm:     norm,
		apply:    apply,
		persist:  persist,
		lookback: defaultLookback,
		logger:   logger,
		now:      time.Now,
	}
}

// Run brings cursor up to now. On a chunk failure it stops and returns
// the last good cursor so the next invocation resumes without a gap.
func (c *Coordinator) Run(ctx context.Context, cursor Cursor) (Cursor, error) {
	now := c.now()

	if cursor.IsZero() {
		cursor.LastApplied = now.Add(-c.lookback)
		if c.logger != nil {
			c.logger.Infof("no archive cursor found, starting bounded lookback from %s",
				cursor.LastApplied.Format(time.RFC3339))
		}
	}

	span := c.fetcher.MaxQuerySpan()
	if span <= 0 {
		span = defaultLookback
	}

	for {
		select {
		case <-ctx.Done():
			return cursor, ctx.Err()
		default:
		}

		if !cursor.LastApplied.Before(now) {
			return cursor, nil
		}

		start := cursor.NextStart()
		if !start.Before(now) {
			return cursor, nil
		}
		end := cursor.LastApplied.Add(span)
		if end.After(now) {
			end = now
		}

		records, err := c.fetcher.FetchHistory(ctx, start, end)
		if err != nil {
			// Do not skip ahead: resuming from the last good cursor on
			// the next invocation avoids silent gaps.
			if c.logger != nil {
				c.logger.Errorf("archive chunk [%s, %s] failed: %v",
					start.Format(time.RFC3339), end.Format(time.RFC3339), err)
			}
			return cursor, fmt.Errorf("archive fetch: %w", err)
		}

		sort.Slice(records, func(i, j int) bool {
			return records[i].Timestamp.Before(records[j].Timestamp)
		})

		for _, rec := range records {
			samples := make([]types.NormalizedSample, 0, len(rec.Readings))
			for _, r := range rec.Readings {
				samples = append(samples, c.norm.Normalize(r))
			}
			c.apply(rec.Timestamp, samples)
			cursor.Advance(rec.Timestamp)
		}

		// Only an empty window advances the cursor to its end; when
		// records came back the cursor stops at the newest one, so a
		// response truncated by a vendor page cap gets its tail
		// refetched instead of skipped. A genuine data gap then returns
		// an empty follow-up window, which keeps catch-up terminating.
		if len(records) == 0 {
			cursor.Advance(end)
		}

		if c.persist != nil {
			if err := c.persist(cursor); err != nil {
				return cursor, fmt.Errorf("persisting archive cursor: %w", err)
			}
		}

		if c.logger != nil {
			c.logger.Debugf("archive chunk applied, %d records, cursor now %s",
				len(records), cursor.LastApplied.Format(time.RFC3339))
		}
	}
}
