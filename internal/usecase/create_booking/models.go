package create_booking

import "time"

// Settings параметры бронирования
type Settings struct {
	StepMinutes       int // Шаг перебора кандидатов
	AlternativesCount int // Сколько альтернатив предлагать при занятом времени
}

// Request модель запроса на создание записи
type Request struct {
	ClientID  int64     // ID клиента
	PackageID int64     // ID пакета услуг
	StartsAt  time.Time // Начало первой услуги
}

// Response модель ответа с созданной записью
type Response struct {
	ID         int64
	ClientID   int64
	PackageID  int64
	StartsAt   time.Time
	EndsAt     time.Time
	Status     string
	TotalPrice float64

	PaymentReference *string // nil, если платеж не удалось инициировать
	PaymentURL       *string

	Assignments []Assignment

	CreatedAt time.Time
}

// Assignment назначенные ресурсы одной услуги
type Assignment struct {
	ServiceID       int64
	ServiceName     string
	Position        int
	ProfessionalID  int64
	WorkstationID   int64
	StartsAt        time.Time
	DurationMinutes int
	Price           float64
}
