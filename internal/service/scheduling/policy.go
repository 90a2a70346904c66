package scheduling

import (
	"math/rand/v2"
	"sync/atomic"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// RandomPolicy выбирает случайный свободный ресурс
type RandomPolicy struct{}

func (RandomPolicy) PickProfessional(free []domain.Professional) domain.Professional {
	return free[rand.IntN(len(free))]
}

func (RandomPolicy) PickWorkstation(free []domain.Workstation) domain.Workstation {
	return free[rand.IntN(len(free))]
}

// RoundRobinPolicy распределяет нагрузку по кругу
type RoundRobinPolicy struct {
	professionals atomic.Uint64
	workstations  atomic.Uint64
}

func (p *RoundRobinPolicy) PickProfessional(free []domain.Professional) domain.Professional {
	n := p.professionals.Add(1) - 1
	return free[n%uint64(len(free))]
}

func (p *RoundRobinPolicy) PickWorkstation(free []domain.Workstation) domain.Workstation {
	n := p.workstations.Add(1) - 1
	return free[n%uint64(len(free))]
}

// FirstFreePolicy всегда берет первый свободный ресурс. Детерминирована, удобна в тестах.
type FirstFreePolicy struct{}

func (FirstFreePolicy) PickProfessional(free []domain.Professional) domain.Professional {
	return free[0]
}

func (FirstFreePolicy) PickWorkstation(free []domain.Workstation) domain.Workstation {
	return free[0]
}
