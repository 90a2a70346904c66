package staffservice

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

// Professional модель специалиста из StaffService
type Professional struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	CategoryIDs []int64 `json:"category_ids"`
	Deleted     bool    `json:"deleted"`
}

// Workstation модель рабочего места из StaffService
type Workstation struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	CategoryIDs []int64 `json:"category_ids"`
	State       string  `json:"state"` // active, inactive
	Deleted     bool    `json:"deleted"`
}

// ErrorResponse модель ошибки от StaffService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (p Professional) toDomain() domain.Professional {
	return domain.Professional{
		ID:          p.ID,
		Name:        p.Name,
		CategoryIDs: p.CategoryIDs,
		Deleted:     p.Deleted,
	}
}

func (w Workstation) toDomain() domain.Workstation {
	return domain.Workstation{
		ID:          w.ID,
		Name:        w.Name,
		CategoryIDs: w.CategoryIDs,
		State:       domain.ResourceState(w.State),
		Deleted:     w.Deleted,
	}
}
