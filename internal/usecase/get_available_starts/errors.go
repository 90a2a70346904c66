package get_available_starts

import "errors"

var (
	// ErrPackageNotFound возвращается, когда пакет не найден
	ErrPackageNotFound = errors.New("get_available_starts: package not found")

	// ErrCalendarNotConfigured возвращается, когда календарь работы еще не задан
	ErrCalendarNotConfigured = errors.New("get_available_starts: business calendar is not configured")

	// ErrCategoryNotConfigured возвращается, когда в категории нет активных специалистов или рабочих мест
	ErrCategoryNotConfigured = errors.New("get_available_starts: category has no professionals or workstations")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_starts: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_starts: internal error")
)
