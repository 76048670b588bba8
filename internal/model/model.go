package model

import "time"

// Идентификатор источника новостей
type SourceID string

const (
	SourceEpravda  SourceID = "epravda"
	SourceMinfin   SourceID = "minfin"
	SourceCoinDesk SourceID = "coindesk"
	SourceAIN      SourceID = "ain"
	SourceReuters  SourceID = "reuters"
)

// Секция по умолчанию, если источник не смог ее определить
const DefaultSection = "news"

// Заголовок-заглушка для статей без заголовка
const UntitledPlaceholder = "Без назви"

// Новость в том виде, в котором ее отдают источники
type NewsItem struct {
	// Заголовок
	Title string
	// Абсолютная ссылка, по ней же делаем дедупликацию
	URL string
	// Календарная дата публикации (полночь в часовом поясе дайджеста).
	// Нулевое значение значит, что дата неизвестна
	Published time.Time
	// Из какого источника пришла новость
	Source SourceID
	// Раздел внутри источника
	Section string
}

// Dated reports whether the publication date is known.
func (i NewsItem) Dated() bool {
	return !i.Published.IsZero()
}

// Описание источника для вывода пользователю
type SourceInfo struct {
	ID   SourceID
	Name string
	URL  string
}
