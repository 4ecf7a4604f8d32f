package ecowitt

// Wire types for the Ecowitt cloud API (api.ecowitt.net/api/v3). All
// measurement values arrive as strings; decoding leaves them that way
// and lets the normalizer deal with placeholders and junk.

// envelope is the common response wrapper. Code 0 is success; anything
// else is a vendor rejection.
type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Time string `json:"time"`
}

// measurement is one real-time measurable: a value with its unit and
// observation time.
type measurement struct {
	Time  string `json:"time"`
	Unit  string `json:"unit"`
	Value string `json:"value"`
}

// series is one historical measurable: a unit plus a map of unix
// timestamp to value.
type series struct {
	Unit string            `json:"unit"`
	List map[string]string `json:"list"`
}

type realTimeResponse struct {
	envelope
	Data realTimeData `json:"data"`
}

type realTimeData struct {
	Outdoor struct {
		Temperature *measurement `json:"temperature"`
		Humidity    *measurement `json:"humidity"`
		DewPoint    *measurement `json:"dew_point"`
	} `json:"outdoor"`
	Wind struct {
		WindSpeed     *measurement `json:"wind_speed"`
		WindGust      *measurement `json:"wind_gust"`
		WindDirection *measurement `json:"wind_direction"`
	} `json:"wind"`
	Rainfall struct {
		RainRate *measurement `json:"rain_rate"`
		Yearly   *measurement `json:"yearly"`
	} `json:"rainfall"`
	Pressure struct {
		Relative *measurement `json:"relative"`
	} `json:"pressure"`
	SolarAndUVI struct {
		Solar *measurement `json:"solar"`
		UVI   *measurement `json:"uvi"`
	} `json:"solar_and_uvi"`
	Lightning struct {
		Distance *measurement `json:"distance"`
		Count    *measurement `json:"count"`
	} `json:"lightning"`
	CO2 struct {
		CO2 *measurement `json:"co2"`
	} `json:"co2_aqi_combo"`
}

type historyResponse struct {
	envelope
	Data historyData `json:"data"`
}

type historyData struct {
	Outdoor struct {
		Temperature *series `json:"temperature"`
		Humidity    *series `json:"humidity"`
	} `json:"outdoor"`
	Wind struct {
		WindSpeed     *series `json:"wind_speed"`
		WindGust      *series `json:"wind_gust"`
		WindDirection *series `json:"wind_direction"`
	} `json:"wind"`
	Rainfall struct {
		Yearly *series `json:"yearly"`
	} `json:"rainfall"`
	Pressure struct {
		Relative *series `json:"relative"`
	} `json:"pressure"`
	SolarAndUVI struct {
		Solar *series `json:"solar"`
		UVI   *series `json:"uvi"`
	} `json:"solar_and_uvi"`
}
