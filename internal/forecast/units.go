package forecast

import "math"

const kphPerMph = 1.60934

// FtoC converts Fahrenheit to Celsius.
func FtoC(f float64) float64 {
	return (f - 32) * 5 / 9
}

// CtoF converts Celsius to Fahrenheit.
func CtoF(c float64) float64 {
	return c*9/5 + 32
}

// MphToKph converts miles per hour to kilometres per hour.
func MphToKph(mph float64) float64 {
	return mph * kphPerMph
}

// FeelsLikeF returns the perceived temperature in Fahrenheit.
// Wind chill applies at or below 50°F with wind above 3 mph, heat index at or
// above 80°F; otherwise the actual temperature is returned unchanged.
func FeelsLikeF(tempF, windMph, humidity float64) float64 {
	if tempF <= 50 && windMph > 3 {
		return windChill(tempF, windMph)
	}
	if tempF >= 80 {
		return heatIndex(tempF, humidity)
	}
	return tempF
}

func windChill(t, v float64) float64 {
	vp := math.Pow(v, 0.16)
	return math.Round(35.74 + 0.6215*t - 35.75*vp + 0.4275*t*vp)
}

// heatIndex is the Rothfusz regression.
func heatIndex(t, h float64) float64 {
	hi := -42.379 +
		2.04901523*t +
		10.14333127*h -
		0.22475541*t*h -
		0.00683783*t*t -
		0.05481717*h*h +
		0.00122874*t*t*h +
		0.00085282*t*h*h -
		0.00000199*t*t*h*h
	return math.Round(hi)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
