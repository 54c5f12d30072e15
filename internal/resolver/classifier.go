package resolver

import (
	"strings"

	"github.com/alexivanou/weatherquery-api/internal/model"
)

// ClassifierInput is the normalized view of a query and its top geocode
// candidate. All string fields are normalized with Normalize.
type ClassifierInput struct {
	Query       string
	State       string
	Locality    string
	County      string
	AddressType string
	Type        string
	OSMType     string
	Importance  float64
}

// NewClassifierInput normalizes a location query and candidate for classification.
func NewClassifierInput(query string, c model.GeocodeCandidate) ClassifierInput {
	return ClassifierInput{
		Query:       Normalize(query),
		State:       Normalize(c.Address.State),
		Locality:    Normalize(c.Address.Locality()),
		County:      Normalize(c.Address.County),
		AddressType: Normalize(c.AddressType),
		Type:        Normalize(c.Type),
		OSMType:     Normalize(c.OSMType),
		Importance:  c.Importance,
	}
}

// Normalize trims, lowercases, strips periods and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, ".", ""))
	return strings.Join(strings.Fields(s), " ")
}

// IsStateLevelQuery reports whether the query names a whole state rather
// than a place within it.
func IsStateLevelQuery(in ClassifierInput, importanceThreshold float64) bool {
	if in.State == "" {
		return false
	}

	boundary := in.Type == "administrative" || in.Type == "boundary" || in.OSMType == "relation"
	if in.AddressType != "state" && !(boundary && in.Importance > importanceThreshold) {
		return false
	}

	abbrev := stateAbbreviations[in.State]
	if in.Query != in.State && (abbrev == "" || in.Query != abbrev) {
		return false
	}

	// "New York" answered with New York City is a city query.
	if in.Query == in.Locality || in.Query == in.County {
		return false
	}
	return true
}

// HasDistinctPlaces reports whether the candidates name more than one place.
func HasDistinctPlaces(candidates []model.GeocodeCandidate) bool {
	if len(candidates) < 2 {
		return false
	}
	seen := make(map[string]struct{})
	for _, c := range candidates {
		seen[Normalize(c.Address.PlaceName())] = struct{}{}
		if len(seen) > 1 {
			return true
		}
	}
	return false
}

// Decision is the outcome of classifying a non-empty candidate list.
type Decision int

const (
	Proceed Decision = iota
	StateLevel
	MultiMatch
)

func (d Decision) String() string {
	switch d {
	case StateLevel:
		return "state_level"
	case MultiMatch:
		return "multi_match"
	default:
		return "proceed"
	}
}

// Classify decides how a forward geocode result should be handled. The
// state-level check is evaluated against the first candidate and applies
// regardless of selection; multi-match only applies before a selection.
func Classify(query string, candidates []model.GeocodeCandidate, selected bool, importanceThreshold float64) Decision {
	if len(candidates) == 0 {
		return Proceed
	}
	if IsStateLevelQuery(NewClassifierInput(query, candidates[0]), importanceThreshold) {
		return StateLevel
	}
	if !selected && HasDistinctPlaces(candidates) {
		return MultiMatch
	}
	return Proceed
}
