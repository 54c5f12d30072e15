package model

// IntentType names what a weather question is asking for.
type IntentType string

const (
	IntentCurrent      IntentType = "CURRENT"
	IntentDay          IntentType = "DAY"
	IntentHourlyWindow IntentType = "HOURLY_WINDOW"
	IntentDateRange    IntentType = "DATE_RANGE"
)

// Valid reports whether t is one of the known intent types.
func (t IntentType) Valid() bool {
	switch t {
	case IntentCurrent, IntentDay, IntentHourlyWindow, IntentDateRange:
		return true
	}
	return false
}

// Intent is the structured form of a natural-language weather query.
// It is produced once per query and may be echoed back by the caller
// on a follow-up disambiguation request.
type Intent struct {
	IntentType       IntentType `json:"intentType" validate:"required,oneof=CURRENT DAY HOURLY_WINDOW DATE_RANGE"`
	LocationProvided bool       `json:"locationProvided"`
	Location         *string    `json:"location,omitempty"`
	Date             *string    `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartDate        *string    `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate          *string    `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartHour        *int       `json:"startHour,omitempty" validate:"omitempty,min=0,max=23"`
	EndHour          *int       `json:"endHour,omitempty" validate:"omitempty,min=0,max=23"`
}

// LocationText returns the location string or "" when absent.
func (i Intent) LocationText() string {
	if i.Location == nil {
		return ""
	}
	return *i.Location
}
