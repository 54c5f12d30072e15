package compose

import (
	"fmt"
	"math"
	"strings"

	"github.com/alexivanou/weatherquery-api/internal/forecast"
	"github.com/alexivanou/weatherquery-api/internal/model"
)

// Query is the closed set of answer shapes, one variant per intent type.
// Each variant carries only the fields its branch needs.
type Query interface {
	Type() model.IntentType
	render(v view, card *model.Card) (summary string, ok bool)
}

// CurrentQuery asks for conditions right now.
type CurrentQuery struct{}

// DayQuery asks about one day; it is answered from the first forecast day.
type DayQuery struct{}

// HourlyWindowQuery asks about hours StartHour..EndHour (inclusive) of the
// first forecast day.
type HourlyWindowQuery struct {
	StartHour int
	EndHour   int
}

// DateRangeQuery asks about every returned forecast day.
type DateRangeQuery struct{}

func (CurrentQuery) Type() model.IntentType      { return model.IntentCurrent }
func (DayQuery) Type() model.IntentType          { return model.IntentDay }
func (HourlyWindowQuery) Type() model.IntentType { return model.IntentHourlyWindow }
func (DateRangeQuery) Type() model.IntentType    { return model.IntentDateRange }

// FromIntent maps an intent onto its Query variant.
func FromIntent(in model.Intent) (Query, error) {
	if !in.IntentType.Valid() {
		return nil, fmt.Errorf("unknown intent type %q", in.IntentType)
	}

	switch in.IntentType {
	case model.IntentCurrent:
		return CurrentQuery{}, nil
	case model.IntentDay:
		return DayQuery{}, nil
	case model.IntentHourlyWindow:
		q := HourlyWindowQuery{StartHour: 0, EndHour: 23}
		if in.StartHour != nil {
			q.StartHour = *in.StartHour
		}
		if in.EndHour != nil {
			q.EndHour = *in.EndHour
		}
		return q, nil
	default:
		return DateRangeQuery{}, nil
	}
}

// Compose renders the summary sentence and card for a snapshot. When the
// data a variant needs is missing, the summary falls back to a generic
// sentence and the variant's card field stays nil.
func Compose(q Query, snap *model.WeatherSnapshot, units model.Units) *model.LookupResponse {
	if units != model.UnitsMetric {
		units = model.UnitsImperial
	}
	v := view{snap: snap, units: units, place: placeLabel(snap.Location)}
	card := model.Card{
		Type:     q.Type(),
		Location: v.place,
		Units:    units,
	}

	summary, ok := q.render(v, &card)
	if !ok {
		summary = fmt.Sprintf("Weather data retrieved for %s.", v.place)
	}
	return &model.LookupResponse{SummaryText: summary, Card: card}
}

func (CurrentQuery) render(v view, card *model.Card) (string, bool) {
	cur := v.snap.Current
	if cur == nil {
		return "", false
	}

	temp := v.temp(cur.TempF)
	card.Current = &model.CurrentCard{
		Temperature: temp,
		FeelsLike:   v.temp(cur.FeelsLikeF),
		Condition:   cur.Condition,
		Humidity:    round(cur.Humidity),
		WindSpeed:   v.wind(cur.WindMph),
		Icon:        cur.Icon,
	}
	return fmt.Sprintf("Currently %s and %d%s in %s.",
		strings.ToLower(cur.Condition), temp, v.tempUnit(), v.place), true
}

func (DayQuery) render(v view, card *model.Card) (string, bool) {
	day := v.firstDay()
	if day == nil {
		return "", false
	}

	high, low := v.temp(day.MaxTempF), v.temp(day.MinTempF)
	card.Day = &model.DayCard{
		Date:         day.Date,
		High:         high,
		Low:          low,
		Condition:    day.Condition,
		PrecipChance: round(day.PrecipChance),
	}
	return fmt.Sprintf("%s in %s on %s with a high of %d%s and a low of %d%s.",
		day.Condition, v.place, day.Date, high, v.tempUnit(), low, v.tempUnit()), true
}

func (q HourlyWindowQuery) render(v view, card *model.Card) (string, bool) {
	day := v.firstDay()
	if day == nil {
		return "", false
	}

	var hours []model.HourEntry
	var sum float64
	for _, h := range day.Hourly {
		if h.Hour < q.StartHour || h.Hour > q.EndHour {
			continue
		}
		sum += h.TempF
		hours = append(hours, model.HourEntry{
			Time:         h.Time,
			Hour:         h.Hour,
			Temperature:  v.temp(h.TempF),
			Condition:    h.Condition,
			PrecipChance: round(h.PrecipChance),
		})
	}
	if len(hours) == 0 {
		return "", false
	}

	card.Hourly = &model.HourlyCard{StartHour: q.StartHour, EndHour: q.EndHour, Hours: hours}
	avg := v.temp(sum / float64(len(hours)))
	return fmt.Sprintf("Between %s and %s on %s, %s averages %d%s.",
		formatHour(q.StartHour), formatHour(q.EndHour), day.Date, v.place, avg, v.tempUnit()), true
}

func (DateRangeQuery) render(v view, card *model.Card) (string, bool) {
	days := v.snap.Forecast
	if len(days) == 0 {
		return "", false
	}

	var conditions []string
	seen := make(map[string]struct{})
	rows := make([]model.RangeDay, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d.Condition]; !ok && d.Condition != "" {
			seen[d.Condition] = struct{}{}
			conditions = append(conditions, d.Condition)
		}
		rows = append(rows, model.RangeDay{
			Date:      d.Date,
			High:      v.temp(d.MaxTempF),
			Low:       v.temp(d.MinTempF),
			Condition: d.Condition,
		})
	}

	card.Range = &model.DateRangeCard{Days: rows}
	return fmt.Sprintf("%s over the next %d %s in %s.",
		strings.Join(conditions, ", "), len(days), plural(len(days), "day", "days"), v.place), true
}

// view bundles what every variant reads while rendering.
type view struct {
	snap  *model.WeatherSnapshot
	units model.Units
	place string
}

func (v view) temp(f float64) int {
	if v.units == model.UnitsMetric {
		return round(forecast.FtoC(f))
	}
	return round(f)
}

func (v view) tempUnit() string {
	if v.units == model.UnitsMetric {
		return "°C"
	}
	return "°F"
}

func (v view) wind(mph float64) int {
	if v.units == model.UnitsMetric {
		return round(forecast.MphToKph(mph))
	}
	return round(mph)
}

func (v view) firstDay() *model.ForecastDay {
	if len(v.snap.Forecast) == 0 {
		return nil
	}
	return &v.snap.Forecast[0]
}

func placeLabel(loc model.LocationInfo) string {
	if loc.Region != "" && loc.Region != loc.Name {
		return loc.Name + ", " + loc.Region
	}
	return loc.Name
}

func round(f float64) int {
	return int(math.Round(f))
}

func formatHour(h int) string {
	switch {
	case h == 0:
		return "12 AM"
	case h < 12:
		return fmt.Sprintf("%d AM", h)
	case h == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", h-12)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
