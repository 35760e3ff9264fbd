package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewHolidayWithDefaultMonitoring(t *testing.T) {
	blackFriday := date(2025, time.November, 28)
	h := NewHolidayWithDefaultMonitoring("Black Friday", blackFriday)

	if h.Year != 2025 {
		t.Fatalf("год должен браться из даты праздника, получено %d", h.Year)
	}
	if h.MonitoringStartDate == nil || h.MonitoringEndDate == nil {
		t.Fatal("окно мониторинга по умолчанию должно быть задано")
	}
	wantStart := date(2025, time.November, 14)
	wantEnd := date(2025, time.December, 5)
	if !h.MonitoringStartDate.Equal(wantStart) {
		t.Fatalf("начало окна: ожидалось %s, получено %s", wantStart, h.MonitoringStartDate)
	}
	if !h.MonitoringEndDate.Equal(wantEnd) {
		t.Fatalf("конец окна: ожидалось %s, получено %s", wantEnd, h.MonitoringEndDate)
	}
	if !h.IsActive {
		t.Fatal("новый праздник должен быть активен")
	}
}

func TestHolidayIsInMonitoringPeriod(t *testing.T) {
	h := NewHolidayWithDefaultMonitoring("Black Friday", date(2025, time.November, 28))

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"до окна", date(2025, time.November, 13), false},
		{"первый день окна", date(2025, time.November, 14), true},
		{"день праздника", date(2025, time.November, 28), true},
		{"последний день окна", date(2025, time.December, 5), true},
		{"после окна", date(2025, time.December, 6), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := h.IsInMonitoringPeriod(tc.day); got != tc.want {
				t.Fatalf("IsInMonitoringPeriod(%s) = %v, ожидалось %v", tc.day, got, tc.want)
			}
		})
	}
}

func TestHolidayWithoutWindow(t *testing.T) {
	h := &Holiday{Name: "Без окна", HolidayDate: date(2025, time.January, 1), Year: 2025, IsActive: true}
	if h.IsInMonitoringPeriod(date(2025, time.January, 1)) {
		t.Fatal("праздник без окна мониторинга не должен матчить даты")
	}
}

func TestHolidayUpdateMonitoringPeriod(t *testing.T) {
	h := NewHolidayWithDefaultMonitoring("Новый год", date(2026, time.January, 1))

	start := date(2025, time.December, 20)
	end := date(2026, time.January, 3)
	if err := h.UpdateMonitoringPeriod(start, end); err != nil {
		t.Fatal(err)
	}
	if !h.MonitoringStartDate.Equal(start) || !h.MonitoringEndDate.Equal(end) {
		t.Fatal("окно мониторинга не обновилось")
	}

	if err := h.UpdateMonitoringPeriod(end, start); err == nil {
		t.Fatal("окно с началом позже конца должно отклоняться")
	}
}

func TestHolidayActivation(t *testing.T) {
	h := NewHolidayWithDefaultMonitoring("Чусок", date(2025, time.October, 6))
	h.Deactivate()
	if h.IsActive {
		t.Fatal("Deactivate должен снимать активность")
	}
	h.Activate()
	if !h.IsActive {
		t.Fatal("Activate должен возвращать активность")
	}
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2025, time.June, 15, 23, 59, 58, 123, time.UTC)
	got := DateOnly(ts)
	want := date(2025, time.June, 15)
	if !got.Equal(want) {
		t.Fatalf("DateOnly: ожидалось %s, получено %s", want, got)
	}
}
