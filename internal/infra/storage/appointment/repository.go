package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

const (
	appointmentsTable = "appointments"
	assignmentsTable  = "service_assignments"
)

var appointmentColumns = []string{
	"id",
	"client_id",
	"package_id",
	"starts_at",
	"ends_at",
	"status",
	"total_price",
	"payment_reference",
	"payment_url",
	"paid_amount",
	"paid_at",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

var assignmentColumns = []string{
	"id",
	"appointment_id",
	"service_id",
	"category_id",
	"professional_id",
	"workstation_id",
	"position",
	"starts_at",
	"service_name",
	"duration_minutes",
	"price",
	"released",
	"created_at",
}

// Repository репозиторий записей и назначений ресурсов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreateAppointment создает заголовок записи
func (r *Repository) CreateAppointment(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(appointmentsTable).
		Columns(
			"client_id",
			"package_id",
			"starts_at",
			"ends_at",
			"status",
			"total_price",
		).
		Values(
			a.ClientID,
			a.PackageID,
			a.StartsAt,
			a.EndsAt,
			a.Status,
			a.TotalPrice,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateAppointment - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateAppointment - execute insert: %w", ErrExecQuery, err)
	}

	return a, nil
}

// CreateAssignment сохраняет назначение услуги.
// Пересечение с уже занятым специалистом или местом возвращает ErrResourceConflict.
func (r *Repository) CreateAssignment(ctx context.Context, a *domain.ServiceAssignment) (*domain.ServiceAssignment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(assignmentsTable).
		Columns(
			"appointment_id",
			"service_id",
			"category_id",
			"professional_id",
			"workstation_id",
			"position",
			"starts_at",
			"ends_at",
			"service_name",
			"duration_minutes",
			"price",
		).
		Values(
			a.AppointmentID,
			a.ServiceID,
			a.CategoryID,
			a.ProfessionalID,
			a.WorkstationID,
			a.Position,
			a.StartsAt,
			a.EndsAt(),
			a.ServiceName,
			a.DurationMinutes,
			a.Price,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateAssignment - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if txmanager.IsExclusionViolation(err) {
			return nil, fmt.Errorf("%w: professional %d, workstation %d at %s",
				ErrResourceConflict, a.ProfessionalID, a.WorkstationID, a.StartsAt.Format(time.RFC3339))
		}
		return nil, fmt.Errorf("%w: CreateAssignment - execute insert: %w", ErrExecQuery, err)
	}

	return a, nil
}

// GetByID получает запись вместе с назначениями.
// Внутри транзакции строка записи блокируется (FOR UPDATE).
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(appointmentColumns...).
		From(appointmentsTable).
		Where(squirrel.Eq{"id": id})
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %v", ErrScanRow, err)
	}

	byAppointment, err := r.loadAssignments(ctx, []int64{a.ID})
	if err != nil {
		return nil, err
	}
	a.Assignments = byAppointment[a.ID]

	return a, nil
}

// ListByClient получает историю записей клиента, новые сначала
func (r *Repository) ListByClient(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(appointmentColumns...).
		From(appointmentsTable).
		Where(squirrel.Eq{"client_id": filter.ClientID}).
		OrderBy("starts_at DESC", "id DESC")

	// Фильтрация по статусу, если указан
	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByClient - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByClient - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	appointments, err := scanAppointments(rows)
	if err != nil {
		return nil, err
	}

	return r.attachAssignments(ctx, appointments)
}

// ListExpiredPending получает неоплаченные записи, созданные раньше createdBefore.
// Внутри транзакции строки блокируются, уже заблокированные пропускаются.
func (r *Repository) ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(appointmentColumns...).
		From(appointmentsTable).
		Where(squirrel.Eq{"status": domain.StatusPending}).
		Where(squirrel.Lt{"created_at": createdBefore}).
		OrderBy("created_at ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE SKIP LOCKED")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredPending - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredPending - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// ListActiveAssignments получает неосвобожденные назначения категорий, пересекающие [from, to).
// Внутри транзакции строки блокируются (FOR UPDATE) до конца бронирования.
func (r *Repository) ListActiveAssignments(ctx context.Context, categoryIDs []int64, from, to time.Time) ([]domain.ServiceAssignment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(assignmentColumns...).
		From(assignmentsTable).
		Where(squirrel.Eq{"category_id": categoryIDs}).
		Where(squirrel.Eq{"released": false}).
		Where(squirrel.Lt{"starts_at": to}).
		Where(squirrel.Gt{"ends_at": from}).
		OrderBy("starts_at ASC", "id ASC")
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveAssignments - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveAssignments - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// ListResourceAssignments получает неосвобожденные назначения любых категорий,
// занимающие указанных специалистов или рабочие места в [from, to).
// Внутри транзакции строки блокируются (FOR UPDATE).
func (r *Repository) ListResourceAssignments(ctx context.Context, professionalIDs, workstationIDs []int64, from, to time.Time) ([]domain.ServiceAssignment, error) {
	if len(professionalIDs) == 0 && len(workstationIDs) == 0 {
		return nil, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(assignmentColumns...).
		From(assignmentsTable).
		Where(squirrel.Or{
			squirrel.Eq{"professional_id": professionalIDs},
			squirrel.Eq{"workstation_id": workstationIDs},
		}).
		Where(squirrel.Eq{"released": false}).
		Where(squirrel.Lt{"starts_at": to}).
		Where(squirrel.Gt{"ends_at": from}).
		OrderBy("starts_at ASC", "id ASC")
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListResourceAssignments - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListResourceAssignments - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// UpdateStatus обновляет статус записи
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	query, args, err := psqlbuilder.Update(appointmentsTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execOne(ctx, "UpdateStatus", query, args)
}

// Cancel отменяет запись с указанием причины
func (r *Repository) Cancel(ctx context.Context, id int64, reason string) error {
	query, args, err := psqlbuilder.Update(appointmentsTable).
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execOne(ctx, "Cancel", query, args)
}

// ReleaseAssignments освобождает ресурсы записи. Запись физически не удаляется.
func (r *Repository) ReleaseAssignments(ctx context.Context, appointmentID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(assignmentsTable).
		Set("released", true).
		Where(squirrel.Eq{"appointment_id": appointmentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReleaseAssignments - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReleaseAssignments - execute update: %w", ErrExecQuery, err)
	}
	return nil
}

// SetPayment сохраняет ссылку платежного провайдера
func (r *Repository) SetPayment(ctx context.Context, id int64, reference, url string) error {
	query, args, err := psqlbuilder.Update(appointmentsTable).
		Set("payment_reference", reference).
		Set("payment_url", url).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetPayment - build update query: %v", ErrBuildQuery, err)
	}

	return r.execOne(ctx, "SetPayment", query, args)
}

// MarkPaid фиксирует оплату и активирует запись
func (r *Repository) MarkPaid(ctx context.Context, id int64, amount float64, paidAt time.Time) error {
	query, args, err := psqlbuilder.Update(appointmentsTable).
		Set("status", domain.StatusActive).
		Set("paid_amount", amount).
		Set("paid_at", paidAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkPaid - build update query: %v", ErrBuildQuery, err)
	}

	return r.execOne(ctx, "MarkPaid", query, args)
}

func (r *Repository) execOne(ctx context.Context, op, query string, args []interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *Repository) attachAssignments(ctx context.Context, appointments []*domain.Appointment) ([]*domain.Appointment, error) {
	if len(appointments) == 0 {
		return appointments, nil
	}

	ids := make([]int64, len(appointments))
	for i, a := range appointments {
		ids[i] = a.ID
	}

	byAppointment, err := r.loadAssignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range appointments {
		a.Assignments = byAppointment[a.ID]
	}
	return appointments, nil
}

func (r *Repository) loadAssignments(ctx context.Context, appointmentIDs []int64) (map[int64][]domain.ServiceAssignment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(assignmentColumns...).
		From(assignmentsTable).
		Where(squirrel.Eq{"appointment_id": appointmentIDs}).
		OrderBy("appointment_id", "position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: loadAssignments - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: loadAssignments - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	assignments, err := scanAssignments(rows)
	if err != nil {
		return nil, err
	}

	byAppointment := make(map[int64][]domain.ServiceAssignment, len(appointmentIDs))
	for _, a := range assignments {
		byAppointment[a.AppointmentID] = append(byAppointment[a.AppointmentID], a)
	}
	return byAppointment, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.PackageID,
		&a.StartsAt,
		&a.EndsAt,
		&a.Status,
		&a.TotalPrice,
		&a.PaymentReference,
		&a.PaymentURL,
		&a.PaidAmount,
		&a.PaidAt,
		&a.CancellationReason,
		&a.CancelledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// scanAppointments сканирует результаты запроса в слайс записей
func scanAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanAppointments - scan row: %v", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanAppointments - rows error: %v", ErrScanRow, err)
	}
	return appointments, nil
}

func scanAssignments(rows *sql.Rows) ([]domain.ServiceAssignment, error) {
	assignments := make([]domain.ServiceAssignment, 0)
	for rows.Next() {
		var a domain.ServiceAssignment
		err := rows.Scan(
			&a.ID,
			&a.AppointmentID,
			&a.ServiceID,
			&a.CategoryID,
			&a.ProfessionalID,
			&a.WorkstationID,
			&a.Position,
			&a.StartsAt,
			&a.ServiceName,
			&a.DurationMinutes,
			&a.Price,
			&a.Released,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanAssignments - scan row: %v", ErrScanRow, err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanAssignments - rows error: %v", ErrScanRow, err)
	}
	return assignments, nil
}
