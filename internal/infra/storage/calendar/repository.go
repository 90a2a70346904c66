package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const (
	calendarTable = "business_calendar"
	calendarRowID = 1
)

// Repository репозиторий календаря работы (единственная строка)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория календаря
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get получает текущий календарь
func (r *Repository) Get(ctx context.Context) (*domain.BusinessCalendar, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"interval_minutes",
		"max_reservation_days",
		"first_shift_open",
		"first_shift_close",
		"second_shift_open",
		"second_shift_close",
		"open_weekdays",
		"timezone",
		"primary_discount_percent",
		"secondary_discount_percent",
		"updated_at",
	).
		From(calendarTable).
		Where(squirrel.Eq{"id": calendarRowID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var (
		cal                     domain.BusinessCalendar
		secondOpen, secondClose *types.TimeString
		weekdays                []int64
	)

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&cal.IntervalMinutes,
		&cal.MaxReservationDays,
		&cal.FirstShift.Open,
		&cal.FirstShift.Close,
		&secondOpen,
		&secondClose,
		pq.Array(&weekdays),
		&cal.Timezone,
		&cal.PrimaryDiscountPercent,
		&cal.SecondaryDiscountPercent,
		&cal.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCalendarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan calendar: %v", ErrScanRow, err)
	}

	if secondOpen != nil && secondClose != nil {
		cal.SecondShift = &domain.Shift{Open: *secondOpen, Close: *secondClose}
	}
	cal.OpenWeekdays = make([]time.Weekday, len(weekdays))
	for i, d := range weekdays {
		cal.OpenWeekdays[i] = time.Weekday(d)
	}

	return &cal, nil
}

// Save создает или полностью заменяет календарь
func (r *Repository) Save(ctx context.Context, cal *domain.BusinessCalendar) (*domain.BusinessCalendar, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	var secondOpen, secondClose interface{}
	if cal.SecondShift != nil {
		secondOpen = cal.SecondShift.Open
		secondClose = cal.SecondShift.Close
	}

	weekdays := make([]int64, len(cal.OpenWeekdays))
	for i, d := range cal.OpenWeekdays {
		weekdays[i] = int64(d)
	}

	query, args, err := psqlbuilder.Insert(calendarTable).
		Columns(
			"id",
			"interval_minutes",
			"max_reservation_days",
			"first_shift_open",
			"first_shift_close",
			"second_shift_open",
			"second_shift_close",
			"open_weekdays",
			"timezone",
			"primary_discount_percent",
			"secondary_discount_percent",
		).
		Values(
			calendarRowID,
			cal.IntervalMinutes,
			cal.MaxReservationDays,
			cal.FirstShift.Open,
			cal.FirstShift.Close,
			secondOpen,
			secondClose,
			pq.Array(weekdays),
			cal.Timezone,
			cal.PrimaryDiscountPercent,
			cal.SecondaryDiscountPercent,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			interval_minutes = EXCLUDED.interval_minutes,
			max_reservation_days = EXCLUDED.max_reservation_days,
			first_shift_open = EXCLUDED.first_shift_open,
			first_shift_close = EXCLUDED.first_shift_close,
			second_shift_open = EXCLUDED.second_shift_open,
			second_shift_close = EXCLUDED.second_shift_close,
			open_weekdays = EXCLUDED.open_weekdays,
			timezone = EXCLUDED.timezone,
			primary_discount_percent = EXCLUDED.primary_discount_percent,
			secondary_discount_percent = EXCLUDED.secondary_discount_percent,
			updated_at = NOW()
		RETURNING updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Save - build upsert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&cal.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: Save - execute upsert: %w", ErrExecQuery, err)
	}

	return cal, nil
}
