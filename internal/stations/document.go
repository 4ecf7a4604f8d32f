package stations

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wxforge/wxforge/internal/types"
)

// Document is the generic push payload accepted by the TCP, MQTT, and
// file-drop transports. Senders that cannot produce a vendor protocol
// submit this shape instead.
type Document struct {
	Station         string            `json:"station"`
	Timestamp       int64             `json:"timestamp"`
	IntervalSeconds int               `json:"interval_seconds"`
	Readings        []DocumentReading `json:"readings"`
}

// DocumentReading is one measurable in a Document. A nil Value with a
// non-empty Text carries the sender's literal representation to the
// normalizer; both nil and empty marks the measurable as not reported.
type DocumentReading struct {
	Kind      string   `json:"kind"`
	Channel   int      `json:"channel,omitempty"`
	Value     *float64 `json:"value"`
	Text      string   `json:"text,omitempty"`
	Unit      string   `json:"unit"`
	ClickCode int      `json:"click_code,omitempty"`
}

// DecodeDocument parses one push document into a batch. The station
// name in the document must match the configured station; push
// transports are shared listeners and a mismatched document belongs to
// nobody.
func DecodeDocument(raw []byte, station string) (Batch, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing push document: %w: %w", err, types.ErrMalformedPayload)
	}
	if doc.Station != station {
		return nil, fmt.Errorf("push document for station %q, want %q: %w",
			doc.Station, station, types.ErrMalformedPayload)
	}
	if len(doc.Readings) == 0 {
		return nil, fmt.Errorf("push document has no readings: %w", types.ErrMalformedPayload)
	}

	ts := time.Now()
	if doc.Timestamp > 0 {
		ts = time.Unix(doc.Timestamp, 0)
	}
	interval := time.Minute
	if doc.IntervalSeconds > 0 {
		interval = time.Duration(doc.IntervalSeconds) * time.Second
	}

	batch := make(Batch, 0, len(doc.Readings))
	for _, dr := range doc.Readings {
		kind, ok := types.ParseKind(dr.Kind)
		if !ok {
			return nil, fmt.Errorf("unknown reading kind %q: %w", dr.Kind, types.ErrMalformedPayload)
		}

		r := types.SensorReading{
			Timestamp: ts,
			Station:   station,
			Kind:      kind,
			Channel:   dr.Channel,
			Unit:      types.Unit(dr.Unit),
			Valid:     true,
			Interval:  interval,
			ClickCode: dr.ClickCode,
		}
		switch {
		case dr.Value != nil:
			r.Value = *dr.Value
		case dr.Text != "":
			r.Text = dr.Text
		default:
			r.Valid = false
		}
		batch = append(batch, r)
	}
	return batch, nil
}
