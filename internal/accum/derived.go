package accum

import (
	"math"
)

// Derived temperature quantities. Inputs are canonical units: °C, %, m/s.

// DewPoint calculates dew point using the Magnus approximation.
func DewPoint(tempC, humidity float64) float64 {
	if humidity <= 0 {
		humidity = 0.001
	}
	gamma := math.Log(humidity/100) + 17.62*tempC/(243.12+tempC)
	return 243.12 * gamma / (17.62 - gamma)
}

// WindChill calculates wind chill using the Environment Canada / NWS
// metric formula. Returns the air temperature when wind chill does not
// apply (temp > 10°C or wind < 1.34 m/s).
func WindChill(tempC, windMS float64) float64 {
	windKMH := windMS * 3.6
	if tempC > 10 || windKMH < 4.8 {
		return tempC
	}
	v := math.Pow(windKMH, 0.16)
	return 13.12 + 0.6215*tempC - 11.37*v + 0.3965*tempC*v
}

// HeatIndex calculates heat index using the NWS regression, converted
// through Fahrenheit. Returns the air temperature below 26.7°C (80°F).
func HeatIndex(tempC, humidity float64) float64 {
	tempF := tempC*9/5 + 32
	if tempF < 80 {
		return tempC
	}

	hiF := -42.379 + 2.04901523*tempF + 10.14333127*humidity -
		0.22475541*tempF*humidity - 0.00683783*tempF*tempF -
		0.05481717*humidity*humidity + 0.00122874*tempF*tempF*humidity +
		0.00085282*tempF*humidity*humidity - 0.00000199*tempF*tempF*humidity*humidity

	return (hiF - 32) * 5 / 9
}

// vapourPressure returns the actual vapour pressure in hPa.
func vapourPressure(tempC, humidity float64) float64 {
	return 6.112 * math.Pow(10, 7.5*tempC/(237.7+tempC)) * humidity / 100
}

// Humidex calculates the Canadian humidex.
func Humidex(tempC, humidity float64) float64 {
	return tempC + 5.0/9.0*(vapourPressure(tempC, humidity)-10)
}

// ApparentTemperature calculates Steadman's apparent temperature.
func ApparentTemperature(tempC, humidity, windMS float64) float64 {
	e := vapourPressure(tempC, humidity)
	return tempC + 0.33*e - 0.70*windMS - 4.00
}

// FeelsLike blends wind chill and apparent temperature the way most
// consumer consoles present it: wind chill at or below 10°C, apparent
// temperature at or above 20°C, the plain air temperature in between.
func FeelsLike(tempC, humidity, windMS float64) float64 {
	switch {
	case tempC <= 10:
		return WindChill(tempC, windMS)
	case tempC >= 20:
		return ApparentTemperature(tempC, humidity, windMS)
	default:
		return tempC
	}
}

// CloudBase estimates the cumulus cloud base height in metres from the
// temperature/dew point spread (125 m per °C).
func CloudBase(tempC, dewPointC float64) float64 {
	spread := tempC - dewPointC
	if spread < 0 {
		spread = 0
	}
	return spread * 125
}
