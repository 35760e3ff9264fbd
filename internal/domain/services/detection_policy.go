package services

import (
	"math"
	"time"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
)

// Incident представляет полный цикл "подъем - скидка", найденный в истории цен.
// Неполный паттерн (подъем без последующей скидки, скидка без предшествующего
// подъема) инцидентом не является и из анализа не возвращается.
type Incident struct {
	PriceBeforeRaise int
	RaisedPrice      int
	DiscountedPrice  int
	RaisedAt         time.Time
	DiscountedAt     time.Time
	Cycles           int
}

// FakeDiscountRate возвращает рекламируемую ставку скидки инцидента
func (i *Incident) FakeDiscountRate() int {
	return models.ComputeFakeDiscountRate(i.RaisedPrice, i.DiscountedPrice)
}

// RealDiscountRate возвращает настоящую ставку скидки инцидента
func (i *Incident) RealDiscountRate() int {
	return models.ComputeRealDiscountRate(i.PriceBeforeRaise, i.DiscountedPrice)
}

// RateGap возвращает величину манипуляции
func (i *Incident) RateGap() int {
	return i.FakeDiscountRate() - i.RealDiscountRate()
}

// AnalyzeHistory ищет цикл "подъем - скидка" в истории цен внутри окна мониторинга.
// history должна быть отсортирована по возрастанию даты. Возвращает nil, если
// полный цикл не найден: недостаток данных не ошибка, а отсутствие обнаружения.
//
// Базовая цена - последняя цена до начала окна; если наблюдений до окна нет,
// берется самая ранняя цена внутри окна. Кандидат на подъем - каждое
// наблюдение строго выше базы; его скидка - минимальная цена после него,
// строго ниже поднятой. Из завершенных пар возвращается пара с наибольшим
// разрывом ставок, поэтому более поздний пик без последующей скидки не
// заслоняет завершенный цикл.
func AnalyzeHistory(history []*models.ProductHistory, windowStart, windowEnd time.Time) *Incident {
	start := models.DateOnly(windowStart)
	end := models.DateOnly(windowEnd)

	var preWindow, inWindow []*models.ProductHistory
	for _, h := range history {
		d := models.DateOnly(h.Date)
		switch {
		case d.Before(start):
			preWindow = append(preWindow, h)
		case !d.After(end):
			inWindow = append(inWindow, h)
		}
	}
	if len(inWindow) == 0 {
		return nil
	}

	baseline := inWindow[0].Price
	if len(preWindow) > 0 {
		baseline = preWindow[len(preWindow)-1].Price
	}
	if baseline <= 0 {
		return nil
	}

	// Минимальная цена строго после каждой точки; при равных минимумах
	// берется самое раннее наблюдение
	minAfter := make([]int, len(inWindow))
	minAfterAt := make([]int, len(inWindow))
	minAfter[len(inWindow)-1] = 0
	minAfterAt[len(inWindow)-1] = -1
	for i := len(inWindow) - 2; i >= 0; i-- {
		minAfter[i] = minAfter[i+1]
		minAfterAt[i] = minAfterAt[i+1]
		if minAfterAt[i] < 0 || inWindow[i+1].Price <= minAfter[i] {
			minAfter[i] = inWindow[i+1].Price
			minAfterAt[i] = i + 1
		}
	}

	// Подъем без последующей скидки не полный паттерн и не оценивается
	raisedIdx, discountedIdx := -1, -1
	bestGap := -1
	for i, h := range inWindow {
		if h.Price <= baseline {
			continue
		}
		if minAfterAt[i] < 0 || minAfter[i] >= h.Price {
			continue
		}
		candidate := Incident{
			PriceBeforeRaise: baseline,
			RaisedPrice:      h.Price,
			DiscountedPrice:  minAfter[i],
		}
		if gap := candidate.RateGap(); gap > bestGap {
			bestGap = gap
			raisedIdx = i
			discountedIdx = minAfterAt[i]
		}
	}
	if raisedIdx < 0 {
		return nil
	}

	return &Incident{
		PriceBeforeRaise: baseline,
		RaisedPrice:      inWindow[raisedIdx].Price,
		DiscountedPrice:  inWindow[discountedIdx].Price,
		RaisedAt:         models.DateOnly(inWindow[raisedIdx].Date),
		DiscountedAt:     models.DateOnly(inWindow[discountedIdx].Date),
		Cycles:           countCycles(inWindow, baseline),
	}
}

// countCycles считает завершенные циклы "подъем выше базы - спад".
// Новый цикл открывается только после возврата цены к базе: колебания
// внутри одного спада остаются одним циклом.
func countCycles(inWindow []*models.ProductHistory, baseline int) int {
	cycles := 0
	open := false
	declined := false
	peak := baseline
	for _, h := range inWindow {
		if !open {
			if h.Price > baseline {
				open = true
				declined = false
				peak = h.Price
			}
			continue
		}
		if h.Price > peak {
			peak = h.Price
		} else if h.Price < peak {
			declined = true
		}
		if h.Price <= baseline {
			cycles++
			open = false
			peak = baseline
		}
	}
	if open && declined {
		cycles++
	}
	return cycles
}

// ScoringPolicy задает веса для вычисления уверенности детектора.
// Уверенность растет с величиной манипуляции и близостью подъема к празднику.
type ScoringPolicy struct {
	// MinRateGap - минимальный разрыв ставок, ниже которого инцидент не фиксируется
	MinRateGap int
	// GapWeight - вклад каждого пункта разрыва ставок в итоговый балл
	GapWeight float64
	// ProximityWeight - максимальный вклад близости подъема к дате праздника
	ProximityWeight float64
	// ProximityHorizonDays - расстояние, на котором вклад близости затухает до нуля
	ProximityHorizonDays int
}

// DefaultScoringPolicy возвращает параметры скоринга по умолчанию
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		MinRateGap:           10,
		GapWeight:            0.8,
		ProximityWeight:      30,
		ProximityHorizonDays: 14,
	}
}

// Score вычисляет уверенность (0-100) для инцидента с данным разрывом ставок,
// подъем которого случился за daysFromHoliday дней до (или после) праздника
func (p ScoringPolicy) Score(rateGap, daysFromHoliday int) int {
	if rateGap < 0 {
		rateGap = 0
	}
	if daysFromHoliday < 0 {
		daysFromHoliday = -daysFromHoliday
	}

	proximity := 0.0
	if p.ProximityHorizonDays > 0 && daysFromHoliday < p.ProximityHorizonDays {
		proximity = p.ProximityWeight *
			(1 - float64(daysFromHoliday)/float64(p.ProximityHorizonDays))
	}

	score := int(math.Round(p.GapWeight*float64(rateGap) + proximity))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// PatternRule сопоставляет инцидент с именованным паттерном манипуляции
type PatternRule struct {
	Pattern models.FakeDiscountPattern
	Matches func(*Incident) bool
}

// DefaultPatternRules возвращает таблицу классификации по умолчанию.
// Правила проверяются по порядку, первое совпавшее побеждает.
func DefaultPatternRules() []PatternRule {
	return []PatternRule{
		{
			Pattern: models.PatternRepeatedCycle,
			Matches: func(i *Incident) bool { return i.Cycles >= 2 },
		},
		{
			Pattern: models.PatternPermanentMarkup,
			Matches: func(i *Incident) bool { return i.DiscountedPrice >= i.PriceBeforeRaise },
		},
	}
}

// ClassifyPattern прогоняет инцидент через таблицу правил.
// Если ни одно правило не совпало, инцидент считается классической схемой.
func ClassifyPattern(rules []PatternRule, incident *Incident) models.FakeDiscountPattern {
	for _, rule := range rules {
		if rule.Matches(incident) {
			return rule.Pattern
		}
	}
	return models.PatternRaiseThenDiscount
}
