package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidMonitoringPeriod возвращается, когда конец окна раньше начала
var ErrInvalidMonitoringPeriod = errors.New("holiday: monitoring period end is before start")

// Окно мониторинга по умолчанию: за 14 дней до праздника и 7 дней после
const (
	DefaultMonitoringDaysBefore = 14
	DefaultMonitoringDaysAfter  = 7
)

// Holiday представляет праздник и окно мониторинга вокруг него,
// в течение которого детектор ищет манипуляции ценами.
// Неактивные праздники полностью исключаются из запусков детектора.
type Holiday struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	HolidayDate         time.Time  `json:"holiday_date"`
	MonitoringStartDate *time.Time `json:"monitoring_start_date,omitempty"`
	MonitoringEndDate   *time.Time `json:"monitoring_end_date,omitempty"`
	Year                int        `json:"year"`
	IsActive            bool       `json:"is_active"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NewHolidayWithDefaultMonitoring создает праздник с окном мониторинга по умолчанию:
// [дата - 14 дней, дата + 7 дней]
func NewHolidayWithDefaultMonitoring(name string, holidayDate time.Time) *Holiday {
	date := DateOnly(holidayDate)
	start := date.AddDate(0, 0, -DefaultMonitoringDaysBefore)
	end := date.AddDate(0, 0, DefaultMonitoringDaysAfter)
	now := time.Now().UTC()

	return &Holiday{
		ID:                  uuid.New().String(),
		Name:                name,
		HolidayDate:         date,
		MonitoringStartDate: &start,
		MonitoringEndDate:   &end,
		Year:                date.Year(),
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// UpdateMonitoringPeriod переопределяет окно мониторинга
func (h *Holiday) UpdateMonitoringPeriod(start, end time.Time) error {
	s := DateOnly(start)
	e := DateOnly(end)
	if e.Before(s) {
		return ErrInvalidMonitoringPeriod
	}
	h.MonitoringStartDate = &s
	h.MonitoringEndDate = &e
	h.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate включает праздник в запуски детектора
func (h *Holiday) Activate() {
	h.IsActive = true
	h.UpdatedAt = time.Now().UTC()
}

// Deactivate исключает праздник из запусков детектора
func (h *Holiday) Deactivate() {
	h.IsActive = false
	h.UpdatedAt = time.Now().UTC()
}

// IsInMonitoringPeriod сообщает, попадает ли дата в окно мониторинга.
// Обе границы включительны. Если любая из границ не задана - false.
func (h *Holiday) IsInMonitoringPeriod(date time.Time) bool {
	if h.MonitoringStartDate == nil || h.MonitoringEndDate == nil {
		return false
	}
	d := DateOnly(date)
	return !d.Before(*h.MonitoringStartDate) && !d.After(*h.MonitoringEndDate)
}

// DateOnly нормализует момент времени до даты (полночь UTC).
// История цен и окна мониторинга оперируют днями, а не моментами.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
