package dialog

import (
	"context"
	"errors"
)

// beginFlightSearch looks up the airports of the current city and asks for the origin.
func (e *Engine) beginFlightSearch(ctx context.Context, t *turn) error {
	city := t.s.Location.City
	airports, err := e.lookupAirports(ctx, city)
	if errors.Is(err, ErrNotFound) {
		t.send(msgNoAirports, Keyboard{})
		return nil
	}
	if err != nil {
		return err
	}
	t.s.OriginCity = city
	t.s.OriginAirports = airports
	t.s.State = StateSecondCity
	t.send(msgOriginQuestion(city), airportKeyboard(airports))
	return nil
}

// askOrigin returns to the origin question. The cached airport list is reused
// and the previously chosen origin code is kept.
func (e *Engine) askOrigin(ctx context.Context, t *turn) error {
	city := t.s.originCity()
	if len(t.s.OriginAirports) == 0 {
		airports, err := e.lookupAirports(ctx, city)
		if errors.Is(err, ErrNotFound) {
			t.s.State = StateRasp
			t.send(msgNoAirports, scheduleMenu)
			return nil
		}
		if err != nil {
			return err
		}
		t.s.OriginCity = city
		t.s.OriginAirports = airports
	}
	t.s.State = StateSecondCity
	t.send(msgOriginQuestion(city), airportKeyboard(t.s.OriginAirports))
	return nil
}

func (e *Engine) onSecondCity(t *turn) error {
	text, ok := t.text()
	if !ok {
		return nil
	}
	if Classify(text) == TokenBack {
		t.s.State = StateRasp
		t.send(msgChooseSearch, scheduleMenu)
		return nil
	}
	code, err := ParseAirportLabel(text)
	if err != nil {
		return err
	}
	t.s.OriginAirportCode = code
	t.s.State = StateSecondAirport
	t.send(msgEnterDestination, backKeyboard)
	return nil
}

func (e *Engine) onSecondAirport(ctx context.Context, t *turn) error {
	text, ok := t.text()
	if !ok {
		return nil
	}
	if Classify(text) == TokenBack {
		return e.askOrigin(ctx, t)
	}

	loc, err := e.geocode(ctx, text)
	if errors.Is(err, ErrNotFound) {
		t.send(msgCityNotFound, Keyboard{})
		return nil
	}
	if err != nil {
		return err
	}
	airports, err := e.lookupAirports(ctx, loc.City)
	if errors.Is(err, ErrNotFound) {
		t.send(msgNoAirports, Keyboard{})
		return nil
	}
	if err != nil {
		return err
	}
	t.s.DestinationCity = loc.City
	t.s.DestinationAirports = airports
	t.s.DestinationAirportCode = ""
	t.s.State = StateFindFlights
	t.send(msgChooseArrival, airportKeyboard(airports))
	return nil
}

func (e *Engine) onFindFlights(ctx context.Context, t *turn) error {
	text, ok := t.text()
	if !ok {
		return nil
	}
	if Classify(text) == TokenBack {
		return e.askOrigin(ctx, t)
	}
	code, err := ParseAirportLabel(text)
	if err != nil {
		return err
	}

	var flights []string
	err = e.call(ctx, "flights", func(ctx context.Context) error {
		var err error
		flights, err = e.ad.Flights.Find(ctx, t.s.OriginAirportCode, code)
		return err
	})
	if errors.Is(err, ErrNotFound) || (err == nil && len(flights) == 0) {
		t.send(msgNoFlights, Keyboard{})
		return e.askOrigin(ctx, t)
	}
	if err != nil {
		return err
	}
	t.s.DestinationAirportCode = code
	t.send(flights[0], backKeyboard)
	return nil
}
