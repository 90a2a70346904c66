package get_available_starts

import "time"

// Settings параметры поиска
type Settings struct {
	StepMinutes     int // Шаг перебора кандидатов
	DefaultPageSize int // Размер страницы, если не указан
	MaxPageSize     int // Максимальный размер страницы
}

// Request модель запроса доступных стартов
type Request struct {
	PackageID int64 // ID пакета
	Page      int   // Номер страницы, начиная с 1
	PageSize  int   // Размер страницы, 0 означает значение по умолчанию
}

// Response модель ответа со страницей доступных стартов
type Response struct {
	PackageID       int64
	Timezone        string      // Часовой пояс бизнеса
	DurationMinutes int         // Суммарная длительность пакета
	Page            int         // Номер страницы
	PageSize        int         // Размер страницы
	Total           int         // Всего доступных стартов до горизонта
	Starts          []time.Time // Старты текущей страницы по возрастанию
}
