package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// FakeDiscountPattern представляет классификацию обнаруженного инцидента
type FakeDiscountPattern string

const (
	// PatternRaiseThenDiscount - классическая схема: подъем цены, затем "скидка" от завышенной
	PatternRaiseThenDiscount FakeDiscountPattern = "RAISE_THEN_DISCOUNT"
	// PatternRepeatedCycle - подъем и скидка повторяются циклами внутри окна
	PatternRepeatedCycle FakeDiscountPattern = "REPEATED_CYCLE"
	// PatternPermanentMarkup - "распродажная" цена так и не опустилась до прежнего уровня
	PatternPermanentMarkup FakeDiscountPattern = "PERMANENT_MARKUP"
)

// FakeDiscountHistory представляет одно обнаружение фальшивой скидки.
// Неизменяема после создания; инцидент однозначно определяется тройкой
// (товар, праздник, дата подъема цены) - повторный запуск детектора по
// неизменившейся истории не создает дубликатов.
type FakeDiscountHistory struct {
	ID               string              `json:"id"`
	ProductID        string              `json:"product_id"`
	HolidayID        string              `json:"holiday_id"`
	DetectedAt       time.Time           `json:"detected_at"`
	RaisedAt         time.Time           `json:"raised_at"`
	PriceBeforeRaise int                 `json:"price_before_raise"`
	RaisedPrice      int                 `json:"raised_price"`
	DiscountedPrice  int                 `json:"discounted_price"`
	FakeDiscountRate int                 `json:"fake_discount_rate"`
	RealDiscountRate int                 `json:"real_discount_rate"`
	ConfidenceScore  int                 `json:"confidence_score"`
	PatternType      FakeDiscountPattern `json:"pattern_type"`
	CreatedAt        time.Time           `json:"created_at"`
}

// NewFakeDiscountHistory создает запись обнаружения с вычисленными ставками скидок
func NewFakeDiscountHistory(
	productID, holidayID string,
	priceBeforeRaise, raisedPrice, discountedPrice int,
	raisedAt time.Time,
	confidenceScore int,
	patternType FakeDiscountPattern,
) *FakeDiscountHistory {
	now := time.Now().UTC()
	return &FakeDiscountHistory{
		ID:               uuid.New().String(),
		ProductID:        productID,
		HolidayID:        holidayID,
		DetectedAt:       now,
		RaisedAt:         DateOnly(raisedAt),
		PriceBeforeRaise: priceBeforeRaise,
		RaisedPrice:      raisedPrice,
		DiscountedPrice:  discountedPrice,
		FakeDiscountRate: ComputeFakeDiscountRate(raisedPrice, discountedPrice),
		RealDiscountRate: ComputeRealDiscountRate(priceBeforeRaise, discountedPrice),
		ConfidenceScore:  confidenceScore,
		PatternType:      patternType,
		CreatedAt:        now,
	}
}

// ComputeFakeDiscountRate вычисляет рекламируемую продавцом ставку скидки:
// процент от завышенной цены. При raisedPrice <= 0 возвращает 0.
func ComputeFakeDiscountRate(raisedPrice, discountedPrice int) int {
	if raisedPrice <= 0 {
		return 0
	}
	return int(math.Round(float64(raisedPrice-discountedPrice) * 100 / float64(raisedPrice)))
}

// ComputeRealDiscountRate вычисляет настоящую ставку скидки относительно
// цены до подъема. Может быть отрицательной, если "распродажная" цена выше
// базовой. При priceBeforeRaise <= 0 возвращает 0.
func ComputeRealDiscountRate(priceBeforeRaise, discountedPrice int) int {
	if priceBeforeRaise <= 0 {
		return 0
	}
	return int(math.Round(float64(priceBeforeRaise-discountedPrice) * 100 / float64(priceBeforeRaise)))
}

// RateGap возвращает величину манипуляции: насколько рекламируемая ставка
// превышает настоящую
func (f *FakeDiscountHistory) RateGap() int {
	return f.FakeDiscountRate - f.RealDiscountRate
}
