package davislive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wxforge/wxforge/internal/types"
)

const requestTimeout = 10 * time.Second

// GetCurrentConditions retrieves current conditions from the device's
// local HTTP API.
func GetCurrentConditions(ctx context.Context, host string) (*CurrentConditionsResponse, error) {
	var result CurrentConditionsResponse
	if err := getJSON(ctx, fmt.Sprintf("http://%s/v1/current_conditions", host), &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, fmt.Errorf("device error %d: %s: %w", result.Error.Code, result.Error.Message, types.ErrVendorRejection)
	}
	return &result, nil
}

// StartRealTimeBroadcast asks the device to begin UDP broadcasts for
// the given number of seconds. The device answers with the port and
// duration it actually granted.
func StartRealTimeBroadcast(ctx context.Context, host string, duration int) (*RealTimeResponse, error) {
	var result RealTimeResponse
	if err := getJSON(ctx, fmt.Sprintf("http://%s/v1/real_time?duration=%d", host, duration), &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, fmt.Errorf("device error %d: %s: %w", result.Error.Code, result.Error.Message, types.ErrVendorRejection)
	}
	return &result, nil
}

func getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("contacting device: %w: %w", err, types.ErrTransientTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s: %w", resp.StatusCode, url, types.ErrTransientTransport)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w: %w", err, types.ErrMalformedPayload)
	}
	return nil
}
