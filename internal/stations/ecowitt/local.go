package ecowitt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

// Local gateway API (GW1000/GW1100/GW2000 firmware): GET
// /get_livedata_info on the LAN. Values arrive as strings with unit
// suffixes baked in ("0.0 mm/Hr", "56%"), keyed by hex sensor ids.

// Gateway sensor ids carried in common_list.
const (
	localIDTemperature = "0x02"
	localIDDewPoint    = "0x03"
	localIDHumidity    = "0x07"
	localIDWindDir     = "0x0A"
	localIDWindSpeed   = "0x0B"
	localIDWindGust    = "0x0C"
	localIDSolar       = "0x15"
	localIDUV          = "0x17"

	// rain list ids
	localIDRainRate   = "0x0E"
	localIDRainYearly = "0x13"
)

type localItem struct {
	ID   string `json:"id"`
	Val  string `json:"val"`
	Unit string `json:"unit"`
}

type localWH25 struct {
	InTemp   string `json:"intemp"`
	InHumi   string `json:"inhumi"`
	Absolute string `json:"abs"`
	Relative string `json:"rel"`
}

type localLiveData struct {
	CommonList []localItem `json:"common_list"`
	Rain       []localItem `json:"rain"`
	PiezoRain  []localItem `json:"piezoRain"`
	WH25       []localWH25 `json:"wh25"`
}

// localClient polls one gateway on the LAN.
type localClient struct {
	base string
	http *http.Client
}

func newLocalClient(hostname string) *localClient {
	return &localClient{
		base: "http://" + hostname,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// LiveData fetches the gateway's current observation set.
func (c *localClient) LiveData(ctx context.Context) (*localLiveData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/get_livedata_info", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gateway: %w: %w", err, types.ErrTransientTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway status %d: %w", resp.StatusCode, types.ErrVendorRejection)
	}

	var data localLiveData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding gateway response: %w: %w", err, types.ErrMalformedPayload)
	}
	return &data, nil
}

// numericToken strips the unit suffix the gateway bakes into values.
// A placeholder like "--" passes through unchanged so it stays on the
// anomaly path instead of becoming a zero.
func numericToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = fields[0]
	}
	return strings.TrimSuffix(raw, "%")
}

// decodeLocal flattens a gateway payload into raw readings. The gateway
// reports wind in km/h and pressure in hPa regardless of display units.
func decodeLocal(data *localLiveData, station string, interval time.Duration) stations.Batch {
	ts := time.Now()

	var batch stations.Batch
	add := func(kind types.Kind, raw string, unit types.Unit) {
		batch = append(batch, stations.NumericReading(ts, station, kind, numericToken(raw), unit, interval))
	}

	for _, item := range data.CommonList {
		switch item.ID {
		case localIDTemperature:
			add(types.KindTemperature, item.Val, types.UnitCelsius)
		case localIDDewPoint:
			add(types.KindDewPoint, item.Val, types.UnitCelsius)
		case localIDHumidity:
			add(types.KindHumidity, item.Val, types.UnitPercent)
		case localIDWindDir:
			add(types.KindWindDirection, item.Val, types.UnitDegrees)
		case localIDWindSpeed:
			add(types.KindWindSpeed, item.Val, types.UnitKMH)
		case localIDWindGust:
			add(types.KindWindGust, item.Val, types.UnitKMH)
		case localIDSolar:
			add(types.KindSolar, item.Val, types.UnitWM2)
		case localIDUV:
			add(types.KindUV, item.Val, types.UnitUVIndex)
		}
	}

	rain := data.Rain
	if len(rain) == 0 {
		rain = data.PiezoRain
	}
	for _, item := range rain {
		switch item.ID {
		case localIDRainRate:
			add(types.KindRainRate, item.Val, types.UnitMMPerHour)
		case localIDRainYearly:
			add(types.KindRainCounter, item.Val, types.UnitMM)
		}
	}

	if len(data.WH25) > 0 && data.WH25[0].Relative != "" {
		add(types.KindPressure, data.WH25[0].Relative, types.UnitHPa)
	}

	return batch
}
