package dialog

// Menu labels shown on reply keyboards. Inbound text is matched against them exactly.
const (
	LabelSkip           = "Пропустить"
	LabelShowMap        = "Показать на карте"
	LabelNews           = "Последние новости"
	LabelWeather        = "Погода"
	LabelSchedules      = "Расписания"
	LabelBack           = "Вернуться назад"
	LabelCurrentWeather = "Текущая погода"
	LabelForecast       = "Прогноз на 6 дней"
	LabelFindFlight     = "Найти авиарейс"
)

// Inline button labels.
const (
	labelNextNews = "Следующая новость"
	labelPrevNews = "Предыдущая новость"
	labelNewsBack = "Назад"
	labelLayerMap = "Карта"
	labelLayerSat = "Спутник"
	labelLayerHyb = "Гибрид"
)

// Token is a menu command recognised in inbound text.
type Token int

const (
	TokenNone Token = iota
	TokenSkip
	TokenShowMap
	TokenNews
	TokenWeather
	TokenSchedules
	TokenBack
	TokenCurrentWeather
	TokenForecast
	TokenFindFlight
)

var vocabulary = map[string]Token{
	LabelSkip:           TokenSkip,
	LabelShowMap:        TokenShowMap,
	LabelNews:           TokenNews,
	LabelWeather:        TokenWeather,
	LabelSchedules:      TokenSchedules,
	LabelBack:           TokenBack,
	LabelCurrentWeather: TokenCurrentWeather,
	LabelForecast:       TokenForecast,
	LabelFindFlight:     TokenFindFlight,
}

// Classify maps text to a menu token by exact match. Anything else is TokenNone.
func Classify(text string) Token {
	return vocabulary[text]
}

// CallbackCode is the payload of an inline button.
type CallbackCode string

const (
	CodeNext CallbackCode = "1"
	CodePrev CallbackCode = "2"
	CodeBack CallbackCode = "3"

	CodeLayerMap       = CallbackCode(LayerMap)
	CodeLayerSatellite = CallbackCode(LayerSatellite)
	CodeLayerHybrid    = CallbackCode(LayerHybrid)
)

// Callback groups used by the transport to route inline buttons.
const (
	GroupNews  = "news"
	GroupLayer = "layer"
)

// ParseCallbackCode validates a raw callback payload.
func ParseCallbackCode(raw string) (CallbackCode, bool) {
	code := CallbackCode(raw)
	switch code {
	case CodeNext, CodePrev, CodeBack,
		CodeLayerMap, CodeLayerSatellite, CodeLayerHybrid:
		return code, true
	}
	return "", false
}

// Group returns the callback group the code belongs to.
func (c CallbackCode) Group() string {
	switch c {
	case CodeNext, CodePrev, CodeBack:
		return GroupNews
	case CodeLayerMap, CodeLayerSatellite, CodeLayerHybrid:
		return GroupLayer
	}
	return ""
}

// Layer converts a layer code to a map layer.
func (c CallbackCode) Layer() (MapLayer, bool) {
	if c.Group() != GroupLayer {
		return "", false
	}
	return MapLayer(c), true
}
