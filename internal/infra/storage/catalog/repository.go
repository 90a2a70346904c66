package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository каталог услуг и пакетов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория каталога
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetPackage получает пакет с услугами в порядке выполнения.
// Удаленный пакет или пакет с удаленной услугой считается ненайденным.
func (r *Repository) GetPackage(ctx context.Context, id int64) (*domain.Package, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name").
		From("packages").
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetPackage - build select query: %v", ErrBuildQuery, err)
	}

	var pkg domain.Package
	err = executor.QueryRowContext(ctx, query, args...).Scan(&pkg.ID, &pkg.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrPackageNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetPackage - scan package: %v", ErrScanRow, err)
	}

	query, args, err = psqlbuilder.Select(
		"s.id",
		"s.category_id",
		"s.name",
		"s.duration_minutes",
		"s.price",
		"s.deleted_at",
	).
		From("package_services ps").
		Join("services s ON s.id = ps.service_id").
		Where(squirrel.Eq{"ps.package_id": id}).
		OrderBy("ps.position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetPackage - build services query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetPackage - execute services query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	services, err := scanServices(rows)
	if err != nil {
		return nil, err
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("%w: package %d has no services", ErrPackageNotFound, id)
	}
	for _, s := range services {
		if s.IsDeleted() {
			return nil, fmt.Errorf("%w: service %d of package %d is deleted", ErrServiceNotFound, s.ID, id)
		}
	}

	pkg.Services = services
	return &pkg, nil
}

func scanServices(rows *sql.Rows) ([]domain.Service, error) {
	services := make([]domain.Service, 0)
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.DurationMinutes, &s.Price, &s.DeletedAt); err != nil {
			return nil, fmt.Errorf("%w: scanServices - scan row: %v", ErrScanRow, err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanServices - rows error: %v", ErrScanRow, err)
	}
	return services, nil
}
