package expire_pending

import "time"

// DefaultBatchSize сколько записей отменяется за один запуск
const DefaultBatchSize = 100

// Settings параметры очистки
type Settings struct {
	// TTL время на оплату, 0 отключает очистку
	TTL       time.Duration
	BatchSize int
}

// Response результат одного запуска
type Response struct {
	Expired       []int64 // ID отмененных записей
	CreatedBefore time.Time
}
