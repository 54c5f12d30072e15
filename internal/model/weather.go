package model

// LocationInfo describes the place a snapshot was computed for.
type LocationInfo struct {
	Name     string  `json:"name"`
	Region   string  `json:"region"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`
}

// CurrentConditions is derived from the first hourly period.
type CurrentConditions struct {
	TempF         float64  `json:"tempF"`
	TempC         float64  `json:"tempC"`
	FeelsLikeF    float64  `json:"feelsLikeF"`
	FeelsLikeC    float64  `json:"feelsLikeC"`
	Condition     string   `json:"condition"`
	Icon          string   `json:"icon,omitempty"`
	WindMph       float64  `json:"windMph"`
	WindKph       float64  `json:"windKph"`
	WindDirection string   `json:"windDirection"`
	Humidity      float64  `json:"humidity"`
	PrecipChance  float64  `json:"precipChance"`
	DewPointC     *float64 `json:"dewPointC"`
}

// HourlyForecast is one hour of the hourly breakdown.
type HourlyForecast struct {
	Time          string  `json:"time"`
	Hour          int     `json:"hour"`
	TempF         float64 `json:"tempF"`
	TempC         float64 `json:"tempC"`
	Condition     string  `json:"condition"`
	Icon          string  `json:"icon,omitempty"`
	WindMph       float64 `json:"windMph"`
	WindDirection string  `json:"windDirection"`
	Humidity      float64 `json:"humidity"`
	PrecipChance  float64 `json:"precipChance"`
}

// ForecastDay aggregates the day and night halves of one calendar date.
type ForecastDay struct {
	Date         string           `json:"date"`
	MaxTempF     float64          `json:"maxTempF"`
	MinTempF     float64          `json:"minTempF"`
	AvgTempF     float64          `json:"avgTempF"`
	MaxTempC     float64          `json:"maxTempC"`
	MinTempC     float64          `json:"minTempC"`
	AvgTempC     float64          `json:"avgTempC"`
	Condition    string           `json:"condition"`
	Icon         string           `json:"icon,omitempty"`
	PrecipChance float64          `json:"precipChance"`
	MaxWindMph   float64          `json:"maxWindMph"`
	Hourly       []HourlyForecast `json:"hourly"`
}

// WeatherSnapshot is the normalized weather for a location. It is
// recomputed on every request.
type WeatherSnapshot struct {
	Location LocationInfo       `json:"location"`
	Current  *CurrentConditions `json:"current"`
	Forecast []ForecastDay      `json:"forecast"`
}
