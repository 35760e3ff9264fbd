package services

import (
	"testing"
	"time"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAnalyzeHistoryClassicRaiseThenDiscount(t *testing.T) {
	// База 50000 до окна, подъем до 100000, скидка до 80000
	history := []*models.ProductHistory{
		{Date: day(2025, time.November, 10), Price: 50000},
		{Date: day(2025, time.November, 16), Price: 100000},
		{Date: day(2025, time.November, 25), Price: 80000},
	}

	incident := AnalyzeHistory(history, day(2025, time.November, 14), day(2025, time.December, 5))
	if incident == nil {
		t.Fatal("expected an incident, got nil")
	}
	if incident.PriceBeforeRaise != 50000 {
		t.Errorf("PriceBeforeRaise = %d, want 50000", incident.PriceBeforeRaise)
	}
	if incident.RaisedPrice != 100000 {
		t.Errorf("RaisedPrice = %d, want 100000", incident.RaisedPrice)
	}
	if incident.DiscountedPrice != 80000 {
		t.Errorf("DiscountedPrice = %d, want 80000", incident.DiscountedPrice)
	}
	if got := incident.FakeDiscountRate(); got != 20 {
		t.Errorf("FakeDiscountRate = %d, want 20", got)
	}
	if got := incident.RealDiscountRate(); got != -60 {
		t.Errorf("RealDiscountRate = %d, want -60", got)
	}
	if got := incident.RateGap(); got != 80 {
		t.Errorf("RateGap = %d, want 80", got)
	}
	if !incident.RaisedAt.Equal(day(2025, time.November, 16)) {
		t.Errorf("RaisedAt = %v, want 2025-11-16", incident.RaisedAt)
	}
	if !incident.DiscountedAt.Equal(day(2025, time.November, 25)) {
		t.Errorf("DiscountedAt = %v, want 2025-11-25", incident.DiscountedAt)
	}
}

func TestAnalyzeHistoryBaselineFromWindowWhenNoPriorData(t *testing.T) {
	history := []*models.ProductHistory{
		{Date: day(2025, time.November, 15), Price: 40000},
		{Date: day(2025, time.November, 20), Price: 60000},
		{Date: day(2025, time.November, 28), Price: 45000},
	}

	incident := AnalyzeHistory(history, day(2025, time.November, 14), day(2025, time.December, 5))
	if incident == nil {
		t.Fatal("expected an incident, got nil")
	}
	if incident.PriceBeforeRaise != 40000 {
		t.Errorf("PriceBeforeRaise = %d, want 40000", incident.PriceBeforeRaise)
	}
}

func TestAnalyzeHistoryNoRaise(t *testing.T) {
	// Цена только падает, подъема нет
	history := []*models.ProductHistory{
		{Date: day(2025, time.November, 10), Price: 50000},
		{Date: day(2025, time.November, 16), Price: 45000},
		{Date: day(2025, time.November, 25), Price: 40000},
	}

	if incident := AnalyzeHistory(history, day(2025, time.November, 14), day(2025, time.December, 5)); incident != nil {
		t.Fatalf("expected nil incident, got %+v", incident)
	}
}

func TestAnalyzeHistoryRaiseWithoutDiscount(t *testing.T) {
	// Подъем есть, но цена после него не опускается
	history := []*models.ProductHistory{
		{Date: day(2025, time.November, 10), Price: 50000},
		{Date: day(2025, time.November, 16), Price: 70000},
		{Date: day(2025, time.November, 25), Price: 70000},
	}

	if incident := AnalyzeHistory(history, day(2025, time.November, 14), day(2025, time.December, 5)); incident != nil {
		t.Fatalf("expected nil incident, got %+v", incident)
	}
}

func TestAnalyzeHistoryEmptyWindow(t *testing.T) {
	history := []*models.ProductHistory{
		{Date: day(2025, time.October, 1), Price: 50000},
	}
	if incident := AnalyzeHistory(history, day(2025, time.November, 14), day(2025, time.December, 5)); incident != nil {
		t.Fatalf("expected nil incident, got %+v", incident)
	}
}

func TestAnalyzeHistoryCountsRepeatedCycles(t *testing.T) {
	// Два полных цикла подъем-спад внутри окна
	history := []*models.ProductHistory{
		{Date: day(2025, time.November, 10), Price: 50000},
		{Date: day(2025, time.November, 15), Price: 80000},
		{Date: day(2025, time.November, 18), Price: 50000},
		{Date: day(2025, time.November, 22), Price: 80000},
		{Date: day(2025, time.November, 26), Price: 55000},
	}

	incident := AnalyzeHistory(history, day(2025, time.November, 14), day(2025, time.December, 5))
	if incident == nil {
		t.Fatal("expected an incident, got nil")
	}
	if incident.Cycles != 2 {
		t.Errorf("Cycles = %d, want 2", incident.Cycles)
	}
}

func TestAnalyzeHistoryLaterPeakDoesNotMaskCompletedCycle(t *testing.T) {
	// Завершенный цикл 80000 -> 60000, затем более высокий пик без скидки.
	// Инцидентом должен стать завершенный цикл, а не пик
	history := []*models.ProductHistory{
		{Date: day(2025, time.November, 10), Price: 50000},
		{Date: day(2025, time.November, 16), Price: 80000},
		{Date: day(2025, time.November, 20), Price: 60000},
		{Date: day(2025, time.November, 26), Price: 100000},
	}

	incident := AnalyzeHistory(history, day(2025, time.November, 14), day(2025, time.December, 5))
	if incident == nil {
		t.Fatal("expected an incident, got nil")
	}
	if incident.RaisedPrice != 80000 {
		t.Errorf("RaisedPrice = %d, want 80000", incident.RaisedPrice)
	}
	if incident.DiscountedPrice != 60000 {
		t.Errorf("DiscountedPrice = %d, want 60000", incident.DiscountedPrice)
	}
	if !incident.RaisedAt.Equal(day(2025, time.November, 16)) {
		t.Errorf("RaisedAt = %v, want 2025-11-16", incident.RaisedAt)
	}
	if !incident.DiscountedAt.Equal(day(2025, time.November, 20)) {
		t.Errorf("DiscountedAt = %v, want 2025-11-20", incident.DiscountedAt)
	}
}

func TestAnalyzeHistoryJitteryDeclineIsSingleCycle(t *testing.T) {
	// Колебания внутри одного спада без возврата к базе - один цикл
	history := []*models.ProductHistory{
		{Date: day(2025, time.November, 10), Price: 50000},
		{Date: day(2025, time.November, 15), Price: 100000},
		{Date: day(2025, time.November, 18), Price: 90000},
		{Date: day(2025, time.November, 21), Price: 95000},
		{Date: day(2025, time.November, 24), Price: 80000},
	}

	incident := AnalyzeHistory(history, day(2025, time.November, 14), day(2025, time.December, 5))
	if incident == nil {
		t.Fatal("expected an incident, got nil")
	}
	if incident.Cycles != 1 {
		t.Errorf("Cycles = %d, want 1", incident.Cycles)
	}
}

func TestScoringPolicyScore(t *testing.T) {
	policy := DefaultScoringPolicy()

	tests := []struct {
		name            string
		rateGap         int
		daysFromHoliday int
		want            int
	}{
		{"raise on holiday itself", 80, 0, 94},      // 0.8*80 + 30
		{"raise a week before", 80, 7, 79},          // 64 + 15
		{"raise beyond proximity horizon", 80, 20, 64},
		{"huge gap clamps at 100", 200, 0, 100},
		{"negative gap treated as zero", -5, 0, 30},
		{"days after holiday count the same", 80, -7, 79},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Score(tt.rateGap, tt.daysFromHoliday); got != tt.want {
				t.Errorf("Score(%d, %d) = %d, want %d", tt.rateGap, tt.daysFromHoliday, got, tt.want)
			}
		})
	}
}

func TestClassifyPattern(t *testing.T) {
	rules := DefaultPatternRules()

	tests := []struct {
		name     string
		incident *Incident
		want     models.FakeDiscountPattern
	}{
		{
			name:     "classic raise then discount",
			incident: &Incident{PriceBeforeRaise: 50000, RaisedPrice: 100000, DiscountedPrice: 45000, Cycles: 1},
			want:     models.PatternRaiseThenDiscount,
		},
		{
			name:     "discounted price still above baseline",
			incident: &Incident{PriceBeforeRaise: 50000, RaisedPrice: 100000, DiscountedPrice: 80000, Cycles: 1},
			want:     models.PatternPermanentMarkup,
		},
		{
			name:     "repeated cycles win over markup",
			incident: &Incident{PriceBeforeRaise: 50000, RaisedPrice: 100000, DiscountedPrice: 80000, Cycles: 2},
			want:     models.PatternRepeatedCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPattern(rules, tt.incident); got != tt.want {
				t.Errorf("ClassifyPattern = %q, want %q", got, tt.want)
			}
		})
	}
}
