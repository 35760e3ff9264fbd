package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/pkg/errors"
)

func newHolidayService() (*HolidayService, *fakeStorage) {
	storage := newFakeStorage()
	return NewHolidayService(storage, noopLogger{}), storage
}

func TestCreateHolidaySetsDefaultWindow(t *testing.T) {
	service, storage := newHolidayService()
	ctx := context.Background()

	holiday, err := service.CreateHoliday(ctx, "설날", day(2026, time.February, 17))
	if err != nil {
		t.Fatalf("CreateHoliday: %v", err)
	}
	if !holiday.IsActive {
		t.Error("new holiday is not active")
	}
	if holiday.Year != 2026 {
		t.Errorf("Year = %d, want 2026", holiday.Year)
	}
	if !holiday.MonitoringStartDate.Equal(day(2026, time.February, 3)) {
		t.Errorf("MonitoringStartDate = %v, want 2026-02-03", holiday.MonitoringStartDate)
	}
	if !holiday.MonitoringEndDate.Equal(day(2026, time.February, 24)) {
		t.Errorf("MonitoringEndDate = %v, want 2026-02-24", holiday.MonitoringEndDate)
	}

	saved, err := storage.GetHoliday(ctx, holiday.ID)
	if err != nil {
		t.Fatalf("GetHoliday: %v", err)
	}
	if saved == nil {
		t.Fatal("holiday was not persisted")
	}
}

func TestUpdateMonitoringPeriod(t *testing.T) {
	service, _ := newHolidayService()
	ctx := context.Background()

	holiday, err := service.CreateHoliday(ctx, "크리스마스", day(2025, time.December, 25))
	if err != nil {
		t.Fatalf("CreateHoliday: %v", err)
	}

	updated, err := service.UpdateMonitoringPeriod(ctx, holiday.ID,
		day(2025, time.December, 1), day(2025, time.December, 31))
	if err != nil {
		t.Fatalf("UpdateMonitoringPeriod: %v", err)
	}
	if !updated.MonitoringStartDate.Equal(day(2025, time.December, 1)) {
		t.Errorf("MonitoringStartDate = %v, want 2025-12-01", updated.MonitoringStartDate)
	}

	// Перевернутое окно отклоняется
	_, err = service.UpdateMonitoringPeriod(ctx, holiday.ID,
		day(2025, time.December, 31), day(2025, time.December, 1))
	if !stderrors.Is(err, models.ErrInvalidMonitoringPeriod) {
		t.Fatalf("err = %v, want ErrInvalidMonitoringPeriod", err)
	}
}

func TestSetActiveToggles(t *testing.T) {
	service, _ := newHolidayService()
	ctx := context.Background()

	holiday, err := service.CreateHoliday(ctx, "어린이날", day(2026, time.May, 5))
	if err != nil {
		t.Fatalf("CreateHoliday: %v", err)
	}

	disabled, err := service.SetActive(ctx, holiday.ID, false)
	if err != nil {
		t.Fatalf("SetActive(false): %v", err)
	}
	if disabled.IsActive {
		t.Error("holiday is still active after SetActive(false)")
	}

	enabled, err := service.SetActive(ctx, holiday.ID, true)
	if err != nil {
		t.Fatalf("SetActive(true): %v", err)
	}
	if !enabled.IsActive {
		t.Error("holiday is not active after SetActive(true)")
	}
}

func TestHolidayNotFound(t *testing.T) {
	service, _ := newHolidayService()
	ctx := context.Background()

	if _, err := service.GetHoliday(ctx, "missing"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetHoliday: err = %v, want ErrNotFound", err)
	}
	if _, err := service.SetActive(ctx, "missing", true); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("SetActive: err = %v, want ErrNotFound", err)
	}
}
