package models

import "testing"

func TestComputeFakeDiscountRate(t *testing.T) {
	tests := []struct {
		name       string
		raised     int
		discounted int
		want       int
	}{
		{"классическая накрутка", 100000, 80000, 20},
		{"округление вверх", 30000, 20001, 33},
		{"округление до половины", 40000, 35000, 13}, // 12.5 -> 13
		{"нулевой делитель", 0, 80000, 0},
		{"отрицательная база", -100, 80, 0},
		{"без скидки", 100000, 100000, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeFakeDiscountRate(tc.raised, tc.discounted); got != tc.want {
				t.Fatalf("ComputeFakeDiscountRate(%d, %d) = %d, ожидалось %d",
					tc.raised, tc.discounted, got, tc.want)
			}
		})
	}
}

func TestComputeRealDiscountRate(t *testing.T) {
	tests := []struct {
		name            string
		priceBeforeRise int
		discounted      int
		want            int
	}{
		{"реальная скидка", 50000, 40000, 20},
		{"цена выросла относительно базы", 50000, 80000, -60},
		{"нулевая база", 0, 80000, 0},
		{"без изменения", 50000, 50000, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeRealDiscountRate(tc.priceBeforeRise, tc.discounted); got != tc.want {
				t.Fatalf("ComputeRealDiscountRate(%d, %d) = %d, ожидалось %d",
					tc.priceBeforeRise, tc.discounted, got, tc.want)
			}
		})
	}
}

// Товар за 50000 подняли до 100000 и "скинули" до 80000:
// витринная скидка 20%, а реально цена выше базы на 60%.
func TestRateGap(t *testing.T) {
	h := &FakeDiscountHistory{
		PriceBeforeRaise: 50000,
		RaisedPrice:      100000,
		DiscountedPrice:  80000,
	}
	h.FakeDiscountRate = ComputeFakeDiscountRate(h.RaisedPrice, h.DiscountedPrice)
	h.RealDiscountRate = ComputeRealDiscountRate(h.PriceBeforeRaise, h.DiscountedPrice)

	if h.FakeDiscountRate != 20 {
		t.Fatalf("витринная скидка: ожидалось 20, получено %d", h.FakeDiscountRate)
	}
	if h.RealDiscountRate != -60 {
		t.Fatalf("реальная скидка: ожидалось -60, получено %d", h.RealDiscountRate)
	}
	if gap := h.RateGap(); gap != 80 {
		t.Fatalf("разрыв ставок: ожидалось 80, получено %d", gap)
	}
}
