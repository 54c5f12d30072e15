package forecast

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/model"
)

// MaxForecastDays bounds the number of calendar days in a snapshot.
const MaxForecastDays = 7

var numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// ParseWindMph extracts a speed from strings such as "10 mph" or
// "5 to 15 mph". Ranges report their upper bound.
func ParseWindMph(s string) float64 {
	var best float64
	for _, m := range numberPattern.FindAllString(s, -1) {
		if v, err := strconv.ParseFloat(m, 64); err == nil && v > best {
			best = v
		}
	}
	if strings.Contains(strings.ToLower(s), "km/h") {
		return best / kphPerMph
	}
	return best
}

// dateKey is the local calendar date of a period.
func dateKey(p Period) string {
	if len(p.StartTime) >= 10 {
		return p.StartTime[:10]
	}
	return p.StartTime
}

func hourOf(p Period) int {
	if t, err := time.Parse(time.RFC3339, p.StartTime); err == nil {
		return t.Hour()
	}
	if len(p.StartTime) >= 13 {
		if h, err := strconv.Atoi(p.StartTime[11:13]); err == nil {
			return h
		}
	}
	return 0
}

func tempF(p Period) float64 {
	if strings.EqualFold(p.TemperatureUnit, "C") {
		return CtoF(p.Temperature)
	}
	return p.Temperature
}

func valueOr(q QuantitativeValue, def float64) float64 {
	if q.Value == nil {
		return def
	}
	return *q.Value
}

type dayBucket struct {
	date   string
	day    *Period
	night  *Period
	hourly []model.HourlyForecast
}

// GroupDays buckets daily periods by the date portion of their start time and
// keeps the first limit dates in encounter order. A bucket missing its day or
// night half reuses the other half for its aggregates. Hourly periods are
// grouped the same way and attached to the matching day.
func GroupDays(daily, hourly []Period, limit int) []model.ForecastDay {
	if limit <= 0 {
		limit = MaxForecastDays
	}

	var order []*dayBucket
	byDate := make(map[string]*dayBucket)
	for i := range daily {
		p := &daily[i]
		key := dateKey(*p)
		b, ok := byDate[key]
		if !ok {
			if len(order) == limit {
				continue
			}
			b = &dayBucket{date: key}
			byDate[key] = b
			order = append(order, b)
		}
		if p.IsDaytime {
			if b.day == nil {
				b.day = p
			}
		} else if b.night == nil {
			b.night = p
		}
	}

	for _, p := range hourly {
		b, ok := byDate[dateKey(p)]
		if !ok {
			continue
		}
		b.hourly = append(b.hourly, toHourly(p))
	}

	days := make([]model.ForecastDay, 0, len(order))
	for _, b := range order {
		days = append(days, b.aggregate())
	}
	return days
}

func (b *dayBucket) aggregate() model.ForecastDay {
	day, night := b.day, b.night
	if day == nil {
		day = night
	}
	if night == nil {
		night = day
	}

	dayT, nightT := tempF(*day), tempF(*night)
	maxF := math.Max(dayT, nightT)
	minF := math.Min(dayT, nightT)
	avgF := (dayT + nightT) / 2

	hourly := b.hourly
	if hourly == nil {
		hourly = []model.HourlyForecast{}
	}

	return model.ForecastDay{
		Date:         b.date,
		MaxTempF:     maxF,
		MinTempF:     minF,
		AvgTempF:     avgF,
		MaxTempC:     round1(FtoC(maxF)),
		MinTempC:     round1(FtoC(minF)),
		AvgTempC:     round1(FtoC(avgF)),
		Condition:    day.ShortForecast,
		Icon:         day.Icon,
		PrecipChance: math.Max(valueOr(day.ProbabilityOfPrecipitation, 0), valueOr(night.ProbabilityOfPrecipitation, 0)),
		MaxWindMph:   math.Max(ParseWindMph(day.WindSpeed), ParseWindMph(night.WindSpeed)),
		Hourly:       hourly,
	}
}

func toHourly(p Period) model.HourlyForecast {
	t := tempF(p)
	return model.HourlyForecast{
		Time:          p.StartTime,
		Hour:          hourOf(p),
		TempF:         t,
		TempC:         round1(FtoC(t)),
		Condition:     p.ShortForecast,
		Icon:          p.Icon,
		WindMph:       ParseWindMph(p.WindSpeed),
		WindDirection: p.WindDirection,
		Humidity:      valueOr(p.RelativeHumidity, 0),
		PrecipChance:  valueOr(p.ProbabilityOfPrecipitation, 0),
	}
}

// CurrentFromPeriods derives current conditions from the first hourly
// period, falling back to the first daily period. It returns nil when both
// lists are empty.
func CurrentFromPeriods(hourly, daily []Period) *model.CurrentConditions {
	var p Period
	switch {
	case len(hourly) > 0:
		p = hourly[0]
	case len(daily) > 0:
		p = daily[0]
	default:
		return nil
	}

	t := tempF(p)
	wind := ParseWindMph(p.WindSpeed)
	humidity := valueOr(p.RelativeHumidity, 0)
	feels := FeelsLikeF(t, wind, humidity)

	return &model.CurrentConditions{
		TempF:         t,
		TempC:         round1(FtoC(t)),
		FeelsLikeF:    feels,
		FeelsLikeC:    round1(FtoC(feels)),
		Condition:     p.ShortForecast,
		Icon:          p.Icon,
		WindMph:       wind,
		WindKph:       round1(MphToKph(wind)),
		WindDirection: p.WindDirection,
		Humidity:      humidity,
		PrecipChance:  valueOr(p.ProbabilityOfPrecipitation, 0),
		DewPointC:     p.Dewpoint.Value,
	}
}
