package services

import (
	"context"
	"fmt"
	"time"

	"github.com/athebyme/pricewatch-service/internal/adapters/storage"
	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/pkg/errors"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
)

// HolidayService предоставляет бизнес-логику для работы с праздниками
// и их окнами мониторинга
type HolidayService struct {
	repository postgres.Port
	logger     interfaces.LoggerPort
}

// NewHolidayService создает новый экземпляр HolidayService
func NewHolidayService(repository postgres.Port, logger interfaces.LoggerPort) *HolidayService {
	return &HolidayService{
		repository: repository,
		logger:     logger,
	}
}

// CreateHoliday создает праздник с окном мониторинга по умолчанию
func (s *HolidayService) CreateHoliday(ctx context.Context, name string, holidayDate time.Time) (*models.Holiday, error) {
	holiday := models.NewHolidayWithDefaultMonitoring(name, holidayDate)

	if err := s.repository.SaveHoliday(ctx, holiday); err != nil {
		return nil, fmt.Errorf("failed to save holiday: %w", err)
	}

	s.logger.InfoWithContext(ctx, "праздник создан",
		"holiday_id", holiday.ID, "name", holiday.Name, "year", holiday.Year)
	return holiday, nil
}

// UpdateMonitoringPeriod переопределяет окно мониторинга праздника
func (s *HolidayService) UpdateMonitoringPeriod(ctx context.Context, holidayID string, start, end time.Time) (*models.Holiday, error) {
	holiday, err := s.repository.GetHoliday(ctx, holidayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holiday: %w", err)
	}
	if holiday == nil {
		return nil, errors.ErrNotFound
	}

	if err := holiday.UpdateMonitoringPeriod(start, end); err != nil {
		return nil, err
	}
	if err := s.repository.SaveHoliday(ctx, holiday); err != nil {
		return nil, fmt.Errorf("failed to save holiday: %w", err)
	}

	s.logger.InfoWithContext(ctx, "окно мониторинга обновлено",
		"holiday_id", holiday.ID,
		"start", holiday.MonitoringStartDate, "end", holiday.MonitoringEndDate)
	return holiday, nil
}

// SetActive включает или исключает праздник из запусков детектора
func (s *HolidayService) SetActive(ctx context.Context, holidayID string, active bool) (*models.Holiday, error) {
	holiday, err := s.repository.GetHoliday(ctx, holidayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holiday: %w", err)
	}
	if holiday == nil {
		return nil, errors.ErrNotFound
	}

	if active {
		holiday.Activate()
	} else {
		holiday.Deactivate()
	}
	if err := s.repository.SaveHoliday(ctx, holiday); err != nil {
		return nil, fmt.Errorf("failed to save holiday: %w", err)
	}

	s.logger.InfoWithContext(ctx, "активность праздника изменена",
		"holiday_id", holiday.ID, "is_active", holiday.IsActive)
	return holiday, nil
}

// GetHoliday возвращает праздник по ID
func (s *HolidayService) GetHoliday(ctx context.Context, holidayID string) (*models.Holiday, error) {
	holiday, err := s.repository.GetHoliday(ctx, holidayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holiday: %w", err)
	}
	if holiday == nil {
		return nil, errors.ErrNotFound
	}
	return holiday, nil
}

// ListHolidays возвращает праздники года (или все при year <= 0)
func (s *HolidayService) ListHolidays(ctx context.Context, year int) ([]*models.Holiday, error) {
	holidays, err := s.repository.ListHolidays(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	return holidays, nil
}
