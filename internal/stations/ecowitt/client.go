package ecowitt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wxforge/wxforge/internal/types"
)

const apiBase = "https://api.ecowitt.net/api/v3"

// Metric unit selectors for the cloud API, so responses arrive in
// canonical units and the normalizer's conversion table stays a
// pass-through for this vendor.
var metricUnits = map[string]string{
	"temp_unitid":             "1",  // Celsius
	"pressure_unitid":         "3",  // hPa
	"wind_speed_unitid":       "6",  // m/s
	"rainfall_unitid":         "12", // mm
	"solar_irradiance_unitid": "16", // W/m2
}

// Client calls the Ecowitt cloud API for one device.
type Client struct {
	applicationKey string
	apiKey         string
	mac            string
	http           *http.Client
}

// NewClient builds a cloud client for the given credentials.
func NewClient(applicationKey, apiKey, mac string) *Client {
	return &Client{
		applicationKey: applicationKey,
		apiKey:         apiKey,
		mac:            mac,
		http:           &http.Client{Timeout: 15 * time.Second},
	}
}

// RealTime fetches the device's latest observation set.
func (c *Client) RealTime(ctx context.Context) (*realTimeData, error) {
	var resp realTimeResponse
	if err := c.get(ctx, "/device/real_time", url.Values{"call_back": {"all"}}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// History fetches 5-minute resolution records for [start, end].
func (c *Client) History(ctx context.Context, start, end time.Time) (*historyData, error) {
	params := url.Values{
		"call_back":  {"outdoor,wind,rainfall,pressure,solar_and_uvi"},
		"start_date": {start.Format("2006-01-02 15:04:05")},
		"end_date":   {end.Format("2006-01-02 15:04:05")},
		"cycle_type": {"5min"},
	}
	var resp historyResponse
	if err := c.get(ctx, "/device/history", params, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface {
	code() (int, string)
}) error {
	params.Set("application_key", c.applicationKey)
	params.Set("api_key", c.apiKey)
	params.Set("mac", c.mac)
	for k, v := range metricUnits {
		params.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w: %w", path, err, types.ErrTransientTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server status %d from %s: %w", resp.StatusCode, path, types.ErrTransientTransport)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d from %s: %w", resp.StatusCode, path, types.ErrVendorRejection)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w: %w", path, err, types.ErrMalformedPayload)
	}
	if code, msg := out.code(); code != 0 {
		return fmt.Errorf("api code %d: %s: %w", code, msg, types.ErrVendorRejection)
	}
	return nil
}

func (e envelope) code() (int, string) { return e.Code, e.Msg }
