package dialog

import "strings"

func replyKeyboard(labels ...string) Keyboard {
	rows := make([][]Button, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, []Button{{Label: l}})
	}
	return Keyboard{Kind: KeyboardReply, Rows: rows}
}

var (
	skipKeyboard     = replyKeyboard(LabelSkip)
	mainMenu         = replyKeyboard(LabelShowMap, LabelNews, LabelWeather, LabelSchedules, LabelBack)
	backKeyboard     = replyKeyboard(LabelBack)
	weatherMenu      = replyKeyboard(LabelCurrentWeather, LabelForecast, LabelBack)
	scheduleMenu     = replyKeyboard(LabelFindFlight, LabelBack)
	removeKeyboard   = Keyboard{Kind: KeyboardRemove}
	mapLayerKeyboard = Keyboard{Kind: KeyboardInline, Rows: [][]Button{
		{{Label: labelLayerMap, Code: CodeLayerMap}},
		{{Label: labelLayerSat, Code: CodeLayerSatellite}},
		{{Label: labelLayerHyb, Code: CodeLayerHybrid}},
	}}
)

// newsKeyboard hides the affordances that would move past either end of the list.
func newsKeyboard(a Affordance) Keyboard {
	var nav []Button
	if a.HasPrev {
		nav = append(nav, Button{Label: labelPrevNews, Code: CodePrev})
	}
	if a.HasNext {
		nav = append(nav, Button{Label: labelNextNews, Code: CodeNext})
	}
	rows := make([][]Button, 0, 2)
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []Button{{Label: labelNewsBack, Code: CodeBack}})
	return Keyboard{Kind: KeyboardInline, Rows: rows}
}

// AirportLabel renders the composite "<name>, <code>" label.
func AirportLabel(a Airport) string {
	return a.Name + ", " + a.Code
}

// ParseAirportLabel extracts the trailing airport code from a composite label.
func ParseAirportLabel(label string) (string, error) {
	i := strings.LastIndex(label, ", ")
	if i <= 0 {
		return "", ErrInvalidInput
	}
	code := strings.TrimSpace(label[i+2:])
	if code == "" || strings.ContainsAny(code, " ,") {
		return "", ErrInvalidInput
	}
	return code, nil
}

func airportKeyboard(airports []Airport) Keyboard {
	labels := make([]string, 0, len(airports)+1)
	for _, a := range airports {
		labels = append(labels, AirportLabel(a))
	}
	labels = append(labels, LabelBack)
	return replyKeyboard(labels...)
}
