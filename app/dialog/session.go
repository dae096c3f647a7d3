package dialog

import (
	"slices"
	"time"

	"github.com/m3rciful/geobot/core/telegram/format"
)

// Session is the per-user conversation state. Only the engine changes it.
type Session struct {
	ID    int64 `json:"id"`
	State State `json:"state"`

	Username     *string   `json:"username,omitempty"`
	LocationHint *string   `json:"location_hint,omitempty"`
	Location     *Location `json:"location,omitempty"`

	News      []NewsItem `json:"news,omitempty"`
	NewsIndex int        `json:"news_index"`

	OriginCity             string    `json:"origin_city,omitempty"`
	OriginAirports         []Airport `json:"origin_airports,omitempty"`
	OriginAirportCode      string    `json:"origin_airport_code,omitempty"`
	DestinationCity        string    `json:"destination_city,omitempty"`
	DestinationAirports    []Airport `json:"destination_airports,omitempty"`
	DestinationAirportCode string    `json:"destination_airport_code,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns a session positioned at the first onboarding step.
func NewSession(id int64) *Session {
	return &Session{ID: id, State: StateEnterName, UpdatedAt: time.Now()}
}

// Clone returns a deep copy so a transition can be abandoned without side effects.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Username != nil {
		v := *s.Username
		c.Username = &v
	}
	if s.LocationHint != nil {
		v := *s.LocationHint
		c.LocationHint = &v
	}
	if s.Location != nil {
		loc := *s.Location
		loc.Raw = slices.Clone(s.Location.Raw)
		c.Location = &loc
	}
	c.News = slices.Clone(s.News)
	c.OriginAirports = slices.Clone(s.OriginAirports)
	c.DestinationAirports = slices.Clone(s.DestinationAirports)
	return &c
}

// Name returns the entered user name, or "" when it was skipped.
func (s *Session) Name() string {
	if s == nil {
		return ""
	}
	return format.DerefString(s.Username, "")
}

// originCity is the city the flight search was started from.
func (s *Session) originCity() string {
	if s.OriginCity != "" || s.Location == nil {
		return s.OriginCity
	}
	return s.Location.City
}

func (s *Session) clearNews() {
	s.News = nil
	s.NewsIndex = 0
}

func (s *Session) clearFlights() {
	s.OriginCity = ""
	s.OriginAirports = nil
	s.OriginAirportCode = ""
	s.DestinationCity = ""
	s.DestinationAirports = nil
	s.DestinationAirportCode = ""
}

// skippable turns the skip label into an explicit absent value.
func skippable(text string) *string {
	if Classify(text) == TokenSkip {
		return nil
	}
	return &text
}
