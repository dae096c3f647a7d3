package dialog

// State identifies a step of the conversation.
type State string

const (
	StateEnterName     State = "enter_name"
	StateEnterLocation State = "enter_location"
	StateIdle          State = "idle"
	StateLocation      State = "location_handler"
	StateNews          State = "news_handler"
	StateWeather       State = "weather_handler"
	StateRasp          State = "rasp_handler"
	StateSecondCity    State = "set_second_city_handler"
	StateSecondAirport State = "set_second_airport_handler"
	StateFindFlights   State = "find_flights_handler"
	StateStopped       State = "stopped"
)

// requiresLocation reports whether the state is only reachable after a successful geocode.
func (s State) requiresLocation() bool {
	switch s {
	case StateLocation, StateNews, StateWeather, StateRasp,
		StateSecondCity, StateSecondAirport, StateFindFlights:
		return true
	}
	return false
}

// requiresOrigin reports whether the state needs the origin airport to be chosen.
func (s State) requiresOrigin() bool {
	return s == StateSecondAirport || s == StateFindFlights
}
