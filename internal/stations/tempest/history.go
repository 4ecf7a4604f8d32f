package tempest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wxforge/wxforge/internal/archive"
	"github.com/wxforge/wxforge/internal/retry"
	"github.com/wxforge/wxforge/internal/types"
)

const (
	restBase = "https://swd.weatherflow.com/swd/rest"
	// historyMaxSpan bounds one observations request.
	historyMaxSpan = 24 * time.Hour
)

// FetchHistory implements archive.Fetcher against the REST observations
// endpoint. It requires an API token and device ID in the station
// configuration.
func (s *Station) FetchHistory(ctx context.Context, start, end time.Time) ([]archive.Record, error) {
	cfg := s.deps.Config
	if cfg.APIKey == "" || cfg.StationID == "" {
		return nil, fmt.Errorf("station [%s] history requires api_key and station_id: %w",
			cfg.Name, types.ErrConfiguration)
	}

	if err := s.deps.Sem.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.deps.Sem.Release()

	params := url.Values{
		"token":      {cfg.APIKey},
		"time_start": {fmt.Sprint(start.Unix())},
		"time_end":   {fmt.Sprint(end.Unix())},
	}
	endpoint := fmt.Sprintf("%s/observations/device/%s?%s", restBase, cfg.StationID, params.Encode())

	var resp historyResponse
	err := retry.HTTPDefault.Do(ctx, func() error {
		return s.getJSON(ctx, endpoint, &resp)
	})
	if err != nil {
		return nil, err
	}
	if resp.Status.StatusCode != 0 {
		return nil, fmt.Errorf("history status %d: %s: %w",
			resp.Status.StatusCode, resp.Status.StatusMessage, types.ErrVendorRejection)
	}

	records := make([]archive.Record, 0, len(resp.Obs))
	s.counterMu.Lock()
	defer s.counterMu.Unlock()
	for _, row := range resp.Obs {
		batch, counter := decodeObs(row, cfg.Name, s.counterMM)
		if batch == nil {
			continue
		}
		s.counterMM = counter
		records = append(records, archive.Record{
			Timestamp: batch[0].Timestamp,
			Readings:  batch,
		})
	}
	return records, nil
}

// MaxQuerySpan implements archive.Fetcher.
func (s *Station) MaxQuerySpan() time.Duration {
	return historyMaxSpan
}

func (s *Station) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling observations endpoint: %w: %w", err, types.ErrTransientTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server status %d: %w", resp.StatusCode, types.ErrTransientTransport)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %w", resp.StatusCode, types.ErrVendorRejection)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding observations: %w: %w", err, types.ErrMalformedPayload)
	}
	return nil
}
