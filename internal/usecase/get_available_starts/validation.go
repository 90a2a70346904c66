package get_available_starts

import (
	"fmt"
	"math"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса и подставляет размер страницы
func validateRequest(req *Request, settings Settings) error {
	if req.PackageID <= 0 {
		return fmt.Errorf("%w: packageID must be positive", ErrInvalidInput)
	}

	if req.Page == 0 {
		req.Page = 1
	}
	if req.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1", ErrInvalidInput)
	}

	if req.PageSize == 0 {
		req.PageSize = settings.DefaultPageSize
	}
	if req.PageSize < 1 || req.PageSize > settings.MaxPageSize {
		return fmt.Errorf("%w: pageSize must be between 1 and %d", ErrInvalidInput, settings.MaxPageSize)
	}

	// Смещение (page-1)*pageSize должно помещаться в int
	if req.Page-1 > math.MaxInt/req.PageSize {
		return fmt.Errorf("%w: page is too large", ErrInvalidInput)
	}

	return nil
}

// validatePackage проверяет, что пакет пригоден для поиска
func validatePackage(pkg *domain.Package) error {
	if len(pkg.Services) == 0 {
		return fmt.Errorf("%w: package %d has no services", ErrInvalidInput, pkg.ID)
	}
	for _, s := range pkg.Services {
		if s.DurationMinutes <= 0 || s.DurationMinutes > domain.MaxServiceDurationMinutes {
			return fmt.Errorf("%w: service %d has invalid duration %d", ErrInvalidInput, s.ID, s.DurationMinutes)
		}
	}
	return nil
}
