package dialog

import (
	"context"
	"errors"
	"strings"
)

func (e *Engine) onEnterName(t *turn) error {
	text, ok := t.text()
	if !ok {
		return nil
	}
	t.s.Username = skippable(text)
	t.s.State = StateEnterLocation
	t.send(msgEnterLocation, skipKeyboard)
	return nil
}

func (e *Engine) onEnterLocation(t *turn) error {
	text, ok := t.text()
	if !ok {
		return nil
	}
	t.s.LocationHint = skippable(text)
	t.s.State = StateIdle
	t.send(msgEnterAnyLocation, removeKeyboard)
	return nil
}

func (e *Engine) onIdle(ctx context.Context, t *turn) error {
	switch ev := t.ev.(type) {
	case TextInput:
		return e.resolveLocation(ctx, t, ev.Text, false)
	case VoiceInput:
		if e.ad.Transcriber == nil {
			t.send(msgSpeechNotFound, Keyboard{})
			return nil
		}
		var text string
		err := e.call(ctx, "speech", func(ctx context.Context) error {
			var err error
			text, err = e.ad.Transcriber.Transcribe(ctx, ev.Audio)
			return err
		})
		if errors.Is(err, ErrNotFound) || (err == nil && strings.TrimSpace(text) == "") {
			t.send(msgSpeechNotFound, Keyboard{})
			return nil
		}
		if err != nil {
			return err
		}
		return e.resolveLocation(ctx, t, text, true)
	}
	return nil
}

// resolveLocation geocodes the query and opens the location menu on success.
func (e *Engine) resolveLocation(ctx context.Context, t *turn, query string, voice bool) error {
	loc, err := e.geocode(ctx, query)
	if errors.Is(err, ErrNotFound) {
		t.send(msgAddressNotFound, Keyboard{})
		return nil
	}
	if err != nil {
		return err
	}
	t.s.Location = &loc
	t.s.clearNews()
	t.s.clearFlights()
	t.s.State = StateLocation
	t.send(msgLocationFound, mainMenu)
	if voice {
		t.send(msgChooseFunction, mainMenu)
	}
	return nil
}

func (e *Engine) onLocation(ctx context.Context, t *turn) error {
	switch ev := t.ev.(type) {
	case CallbackEvent:
		layer, ok := ev.Code.Layer()
		if !ok {
			return nil
		}
		url, err := e.renderMap(ctx, *t.s.Location, layer)
		if err != nil {
			return err
		}
		t.edit(ev.Message, mapCaption(url, t.s.Location.City), mapLayerKeyboard)
		return nil
	case TextInput:
		switch Classify(ev.Text) {
		case TokenShowMap:
			url, err := e.renderMap(ctx, *t.s.Location, LayerMap)
			if err != nil {
				return err
			}
			t.sendMarkdown(mapCaption(url, t.s.Location.City), mapLayerKeyboard)
		case TokenNews:
			return e.openNews(ctx, t)
		case TokenWeather:
			t.s.State = StateWeather
			t.send(msgWeatherQuestion(t.s.Location.City), weatherMenu)
		case TokenSchedules:
			t.s.State = StateRasp
			t.send(msgChooseSearch, scheduleMenu)
		case TokenBack:
			t.s.Location = nil
			t.s.clearNews()
			t.s.clearFlights()
			t.s.State = StateIdle
			t.send(msgEnterAnyLocation, removeKeyboard)
		default:
			return ErrInvalidInput
		}
	}
	return nil
}

func (e *Engine) renderMap(ctx context.Context, loc Location, layer MapLayer) (string, error) {
	var url string
	err := e.call(ctx, "maps", func(context.Context) error {
		var err error
		url, err = e.ad.Maps.RenderURL(loc, layer)
		return err
	})
	return url, err
}

func (e *Engine) openNews(ctx context.Context, t *turn) error {
	var items []NewsItem
	err := e.call(ctx, "news", func(ctx context.Context) error {
		var err error
		items, err = e.ad.News.Fetch(ctx, *t.s.Location)
		return err
	})
	if errors.Is(err, ErrNotFound) || (err == nil && len(items) == 0) {
		t.send(msgNoNews, Keyboard{})
		return nil
	}
	if err != nil {
		return err
	}
	t.s.News = items
	t.s.NewsIndex = 0
	t.s.State = StateNews
	t.send(msgNewsFound(len(items)), removeKeyboard)
	t.sendMarkdown(newsCaption(items[0]), newsKeyboard(Affordances(len(items), 0)))
	return nil
}

func (e *Engine) onNews(t *turn) error {
	ev, ok := t.ev.(CallbackEvent)
	if !ok {
		return nil
	}
	if len(t.s.News) == 0 {
		t.s.clearNews()
		t.s.State = StateLocation
		t.send(msgChooseFunction, mainMenu)
		return nil
	}

	switch ev.Code {
	case CodeNext, CodePrev:
		dir := Next
		if ev.Code == CodePrev {
			dir = Prev
		}
		n := len(t.s.News)
		t.s.NewsIndex = Advance(n, t.s.NewsIndex, dir)
		t.edit(ev.Message, newsCaption(t.s.News[t.s.NewsIndex]), newsKeyboard(Affordances(n, t.s.NewsIndex)))
	case CodeBack:
		t.delete(ev.Message)
		t.s.clearNews()
		t.s.State = StateLocation
		t.send(msgChooseFunction, mainMenu)
	}
	return nil
}

func (e *Engine) onWeather(ctx context.Context, t *turn) error {
	text, ok := t.text()
	if !ok {
		return nil
	}
	loc := t.s.Location
	var (
		report string
		err    error
	)
	switch Classify(text) {
	case TokenCurrentWeather:
		err = e.call(ctx, "weather", func(ctx context.Context) error {
			var err error
			report, err = e.ad.Weather.Current(ctx, loc.City, loc.CountryCode)
			return err
		})
	case TokenForecast:
		err = e.call(ctx, "weather", func(ctx context.Context) error {
			var err error
			report, err = e.ad.Weather.Forecast(ctx, loc.City, loc.CountryCode, forecastDays)
			return err
		})
	case TokenBack:
		t.s.State = StateLocation
		t.send(msgChooseFunction, mainMenu)
		return nil
	default:
		return ErrInvalidInput
	}
	if errors.Is(err, ErrNotFound) {
		t.send(msgNoWeather, Keyboard{})
		return nil
	}
	if err != nil {
		return err
	}
	t.send(report, Keyboard{})
	return nil
}

func (e *Engine) onRasp(ctx context.Context, t *turn) error {
	text, ok := t.text()
	if !ok {
		return nil
	}
	switch Classify(text) {
	case TokenFindFlight:
		return e.beginFlightSearch(ctx, t)
	case TokenBack:
		t.s.State = StateLocation
		t.send(msgChooseFunction, mainMenu)
		return nil
	}
	return ErrInvalidInput
}
