package scheduling

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Directory источник списков специалистов и рабочих мест по категориям
type Directory interface {
	ListProfessionals(ctx context.Context, categoryID int64) ([]domain.Professional, error)
	ListWorkstations(ctx context.Context, categoryID int64) ([]domain.Workstation, error)
}

// AssignmentRepository сохраняет назначения ресурсов
type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, assignment *domain.ServiceAssignment) (*domain.ServiceAssignment, error)
}

// AssignmentPolicy выбирает ресурс из свободных. Срезы всегда непустые.
type AssignmentPolicy interface {
	PickProfessional(free []domain.Professional) domain.Professional
	PickWorkstation(free []domain.Workstation) domain.Workstation
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
