package davislive

// Wire types for the WeatherLink Live local API. Numeric fields are
// pointers: the device omits measurables its sensor suite lacks, and
// that distinction must survive into the normalized model.

// APIError is the error envelope the device returns.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RealTimeResponse answers /v1/real_time.
type RealTimeResponse struct {
	Data  RealTimeData `json:"data"`
	Error *APIError    `json:"error"`
}

// RealTimeData carries the negotiated broadcast parameters. The device
// reports the port and duration it actually granted, which win over
// whatever was requested.
type RealTimeData struct {
	BroadcastPort int `json:"broadcast_port"`
	Duration      int `json:"duration"`
}

// CurrentConditionsResponse answers /v1/current_conditions.
type CurrentConditionsResponse struct {
	Data  CurrentConditionsData `json:"data"`
	Error *APIError             `json:"error"`
}

// CurrentConditionsData is also the shape of each UDP broadcast packet.
type CurrentConditionsData struct {
	DID        string            `json:"did"`
	TS         int64             `json:"ts"`
	Conditions []ConditionRecord `json:"conditions"`
}

// Data structure types in the conditions array.
const (
	structISS       = 1 // outdoor sensor suite
	structLeafSoil  = 2
	structBarometer = 3
	structIndoor    = 4
)

// ConditionRecord is one sensor structure in a conditions array.
type ConditionRecord struct {
	LSID              int `json:"lsid"`
	DataStructureType int `json:"data_structure_type"`
	TxID              int `json:"txid"`

	// ISS (type 1), US customary units
	Temp                  *float64 `json:"temp"`
	Hum                   *float64 `json:"hum"`
	DewPoint              *float64 `json:"dew_point"`
	WindChill             *float64 `json:"wind_chill"`
	WindSpeedLast         *float64 `json:"wind_speed_last"`
	WindDirLast           *float64 `json:"wind_dir_last"`
	WindSpeedAvgLast10Min *float64 `json:"wind_speed_avg_last_10_min"`
	WindSpeedHiLast10Min  *float64 `json:"wind_speed_hi_last_10_min"`
	RainSize              *int     `json:"rain_size"`
	RainRateLast          *float64 `json:"rain_rate_last"`
	RainfallYear          *float64 `json:"rainfall_year"`
	SolarRad              *float64 `json:"solar_rad"`
	UVIndex               *float64 `json:"uv_index"`
	LightningStrikeCount  *float64 `json:"lightning_strike_count"`
	LightningLastDistKM   *float64 `json:"lightning_last_dist_km"`
	LightningLastStrikeTS *int64   `json:"lightning_last_strike_time"`
	TransBatteryFlag      *int     `json:"trans_battery_flag"`

	// Leaf/soil (type 2)
	MoistSoil1 *float64 `json:"moist_soil_1"`
	MoistSoil2 *float64 `json:"moist_soil_2"`
	WetLeaf1   *float64 `json:"wet_leaf_1"`
	WetLeaf2   *float64 `json:"wet_leaf_2"`

	// Barometer (type 3)
	BarSeaLevel *float64 `json:"bar_sea_level"`

	// Indoor (type 4)
	TempIn *float64 `json:"temp_in"`
	HumIn  *float64 `json:"hum_in"`
}
