package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

// SaveHoliday сохраняет праздник и его окно мониторинга
func (r *Storage) SaveHoliday(ctx context.Context, holiday *models.Holiday) error {
	q := r.getExecutor(ctx)

	query := `
		INSERT INTO pricewatch.holidays (id, name, holiday_date,
			monitoring_start_date, monitoring_end_date, year, is_active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			name = $2,
			holiday_date = $3,
			monitoring_start_date = $4,
			monitoring_end_date = $5,
			year = $6,
			is_active = $7,
			updated_at = $9
	`
	_, err := q.Exec(ctx, query,
		holiday.ID, holiday.Name, holiday.HolidayDate,
		holiday.MonitoringStartDate, holiday.MonitoringEndDate, holiday.Year, holiday.IsActive,
		holiday.CreatedAt, holiday.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// GetHoliday получает праздник по ID
func (r *Storage) GetHoliday(ctx context.Context, holidayID string) (*models.Holiday, error) {
	q := r.getExecutor(ctx)

	query := holidaySelectColumns + `
		FROM pricewatch.holidays
		WHERE id = $1
	`
	holiday, err := scanHoliday(q.QueryRow(ctx, query, holidayID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Праздник не найден
		}
		return nil, fmt.Errorf("failed to get holiday: %w", err)
	}
	return holiday, nil
}

// ListHolidays возвращает праздники года (или все при year <= 0), по дате
func (r *Storage) ListHolidays(ctx context.Context, year int) ([]*models.Holiday, error) {
	q := r.getExecutor(ctx)

	var query string
	var args []interface{}
	if year > 0 {
		query = holidaySelectColumns + `
			FROM pricewatch.holidays
			WHERE year = $1
			ORDER BY holiday_date
		`
		args = []interface{}{year}
	} else {
		query = holidaySelectColumns + `
			FROM pricewatch.holidays
			ORDER BY holiday_date
		`
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	return collectHolidays(rows)
}

// ListActiveHolidaysForDate возвращает активные праздники, окно мониторинга
// которых накрывает заданный день
func (r *Storage) ListActiveHolidaysForDate(ctx context.Context, day time.Time) ([]*models.Holiday, error) {
	q := r.getExecutor(ctx)

	query := holidaySelectColumns + `
		FROM pricewatch.holidays
		WHERE is_active
			AND monitoring_start_date IS NOT NULL
			AND monitoring_end_date IS NOT NULL
			AND monitoring_start_date <= $1
			AND monitoring_end_date >= $1
		ORDER BY holiday_date
	`
	rows, err := q.Query(ctx, query, models.DateOnly(day))
	if err != nil {
		return nil, fmt.Errorf("failed to list active holidays: %w", err)
	}
	defer rows.Close()

	return collectHolidays(rows)
}

const holidaySelectColumns = `
	SELECT id, name, holiday_date,
		monitoring_start_date, monitoring_end_date, year, is_active,
		created_at, updated_at
`

func scanHoliday(row pgx.Row) (*models.Holiday, error) {
	var holiday models.Holiday
	err := row.Scan(
		&holiday.ID, &holiday.Name, &holiday.HolidayDate,
		&holiday.MonitoringStartDate, &holiday.MonitoringEndDate, &holiday.Year, &holiday.IsActive,
		&holiday.CreatedAt, &holiday.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &holiday, nil
}

func collectHolidays(rows pgx.Rows) ([]*models.Holiday, error) {
	var holidays []*models.Holiday
	for rows.Next() {
		holiday, err := scanHoliday(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holiday row: %w", err)
		}
		holidays = append(holidays, holiday)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error while iterating holiday rows: %w", rows.Err())
	}
	return holidays, nil
}
