package tempest

// Wire types for the WeatherFlow Tempest UDP broadcast protocol and the
// REST observation endpoint. Both deliver observations as positional
// arrays; the indices are fixed by the vendor.

// message is the common UDP envelope. Type selects which payload
// fields are populated.
type message struct {
	SerialNumber string      `json:"serial_number"`
	Type         string      `json:"type"`
	HubSN        string      `json:"hub_sn"`
	Obs          [][]float64 `json:"obs"`
	Ob           []float64   `json:"ob"`
	Evt          []float64   `json:"evt"`
}

// obs_st positional indices.
const (
	obsEpoch          = 0
	obsWindLull       = 1
	obsWindAvg        = 2
	obsWindGust       = 3
	obsWindDir        = 4
	obsPressure       = 6
	obsAirTemp        = 7
	obsHumidity       = 8
	obsUV             = 10
	obsSolar          = 11
	obsRainAccum      = 12
	obsLightningDist  = 14
	obsLightningCount = 15
	obsBattery        = 16
	obsReportInterval = 17

	obsFieldCount = 18
)

// rapid_wind positional indices.
const (
	rapidEpoch = 0
	rapidSpeed = 1
	rapidDir   = 2
)

// evt_strike positional indices.
const (
	strikeEpoch    = 0
	strikeDistance = 1
)

// historyResponse answers the REST observations endpoint.
type historyResponse struct {
	Status struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
	} `json:"status"`
	Obs [][]float64 `json:"obs"`
}
