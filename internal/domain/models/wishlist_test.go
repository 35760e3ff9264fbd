package models

import "testing"

func TestWishlistTargetPrice(t *testing.T) {
	tests := []struct {
		name    string
		target  int
		current int
		want    bool
	}{
		{"цена ниже цели", 10000, 9000, true},
		{"цена равна цели", 10000, 10000, true},
		{"цена выше цели", 10000, 10001, false},
		{"цель не задана", 0, 1, false},
		{"отрицательная цель", -5, 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := &Wishlist{TargetPrice: tc.target}
			if got := w.IsTargetPriceReached(tc.current); got != tc.want {
				t.Fatalf("target=%d current=%d: получено %v, ожидалось %v",
					tc.target, tc.current, got, tc.want)
			}
		})
	}
}

func TestWishlistHasTargetPrice(t *testing.T) {
	if (&Wishlist{TargetPrice: 0}).HasTargetPrice() {
		t.Fatal("нулевая цель не считается заданной")
	}
	if !(&Wishlist{TargetPrice: 100}).HasTargetPrice() {
		t.Fatal("положительная цель должна считаться заданной")
	}
}
