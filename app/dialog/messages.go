package dialog

import (
	"fmt"
	"strings"

	"github.com/m3rciful/geobot/core/telegram/format"
)

const (
	msgEnterName        = "Введите свое имя"
	msgEnterLocation    = "Введите свое местоположение"
	msgEnterAnyLocation = "Введите какое-либо местоположение"
	msgLocationFound    = "Найдено местоположение"
	msgAddressNotFound  = "По данному адресу ничего не найдено."
	msgSpeechNotFound   = "Не удалось распознать голосовое сообщение. Попробуйте ещё раз."
	msgChooseFunction   = "Выберите одну из возможных функций для данного местоположения:"
	msgNoNews           = "Новостей для этой местности не найдено"
	msgNoWeather        = "Погода для этого города недоступна"
	msgChooseSearch     = "Выберите один из вариантов поиска:"
	msgNoAirports       = "В заданном городе аэропорта не найдено"
	msgEnterDestination = "Введите город пункта назначения:"
	msgCityNotFound     = "Введеный город не найден. Проверьте написание."
	msgChooseArrival    = "Выберите аэропорт прибытия:"
	msgNoFlights        = "Рейсов между указанными ранее аэропортами не найдено!"
	msgTransient        = "Сервис временно недоступен, попробуйте ещё раз."
	msgNotStarted       = "Чтобы начать, отправьте /start"
	msgGoodbye          = "Сеанс завершён. Чтобы начать заново, отправьте /start"
)

func msgNewsFound(n int) string {
	return fmt.Sprintf("Найдено новостей для данного местоположения: %d", n)
}

func msgWeatherQuestion(city string) string {
	return fmt.Sprintf("Что вы хотите узнать о погоде в городе %s?", city)
}

func msgOriginQuestion(city string) string {
	return fmt.Sprintf("Из какого аэропорта города %s вы хотите найти рейс?", city)
}

func msgGoodbyeFor(name string) string {
	if strings.TrimSpace(name) == "" {
		return msgGoodbye
	}
	return fmt.Sprintf("До свидания, %s! %s", name, msgGoodbye)
}

// mapCaption embeds the image URL as an invisible markdown link so Telegram shows a preview.
func mapCaption(url, city string) string {
	return fmt.Sprintf("[\u200b](%s)Карта для города %s", url, escapeMarkdown(city))
}

func newsCaption(item NewsItem) string {
	return fmt.Sprintf("*%s*\n%s\n[Подробнее:](%s)", escapeMarkdown(item.Title), escapeMarkdown(item.Body), item.Link)
}

func escapeMarkdown(s string) string {
	escaped, err := format.EscapeMarkdown(s, format.MarkdownV1)
	if err != nil {
		return s
	}
	return escaped
}
