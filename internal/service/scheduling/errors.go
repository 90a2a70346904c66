package scheduling

import "errors"

var (
	// ErrCategoryNotConfigured у категории нет ни одного активного специалиста или рабочего места
	ErrCategoryNotConfigured = errors.New("scheduling: category has no professionals or workstations")

	// ErrCapacityExhausted все ресурсы категории заняты в запрошенное время
	ErrCapacityExhausted = errors.New("scheduling: capacity exhausted")

	// ErrNoFreeProfessional нет свободного специалиста
	ErrNoFreeProfessional = errors.New("scheduling: no free professional")

	// ErrNoFreeWorkstation нет свободного рабочего места
	ErrNoFreeWorkstation = errors.New("scheduling: no free workstation")

	// ErrDirectoryUnavailable не удалось получить состав категории
	ErrDirectoryUnavailable = errors.New("scheduling: directory unavailable")

	// ErrSaveAssignment не удалось сохранить назначение
	ErrSaveAssignment = errors.New("scheduling: failed to save assignment")
)
