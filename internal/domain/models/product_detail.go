package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductDetail хранит ссылку на страницу товара и скользящую статистику цен,
// пересчитываемую из журнала истории после каждого обхода.
type ProductDetail struct {
	ID            string     `json:"id"`
	ProductID     string     `json:"product_id"`
	ProductURL    string     `json:"product_url"`
	HighPrice30   int        `json:"high_price_30,omitempty"`
	LowPrice30    int        `json:"low_price_30,omitempty"`
	AvgPrice30    int        `json:"avg_price_30,omitempty"`
	HighPrice90   int        `json:"high_price_90,omitempty"`
	LowPrice90    int        `json:"low_price_90,omitempty"`
	AvgPrice90    int        `json:"avg_price_90,omitempty"`
	LastCrawledAt *time.Time `json:"last_crawled_at,omitempty"`
}

// NewProductDetail создает детали товара с пустой статистикой
func NewProductDetail(productID, productURL string) *ProductDetail {
	return &ProductDetail{
		ID:         uuid.New().String(),
		ProductID:  productID,
		ProductURL: productURL,
	}
}

// RecalcStats пересчитывает 30- и 90-дневную статистику из журнала истории.
// Записи старше 90 дней от asOf игнорируются.
func (d *ProductDetail) RecalcStats(history []*ProductHistory, asOf time.Time) {
	cut30 := DateOnly(asOf).AddDate(0, 0, -30)
	cut90 := DateOnly(asOf).AddDate(0, 0, -90)

	var sum30, cnt30, sum90, cnt90 int
	d.HighPrice30, d.LowPrice30, d.AvgPrice30 = 0, 0, 0
	d.HighPrice90, d.LowPrice90, d.AvgPrice90 = 0, 0, 0

	for _, h := range history {
		if h.Date.Before(cut90) {
			continue
		}

		sum90 += h.Price
		cnt90++
		if d.HighPrice90 == 0 || h.Price > d.HighPrice90 {
			d.HighPrice90 = h.Price
		}
		if d.LowPrice90 == 0 || h.Price < d.LowPrice90 {
			d.LowPrice90 = h.Price
		}

		if h.Date.Before(cut30) {
			continue
		}

		sum30 += h.Price
		cnt30++
		if d.HighPrice30 == 0 || h.Price > d.HighPrice30 {
			d.HighPrice30 = h.Price
		}
		if d.LowPrice30 == 0 || h.Price < d.LowPrice30 {
			d.LowPrice30 = h.Price
		}
	}

	if cnt30 > 0 {
		d.AvgPrice30 = sum30 / cnt30
	}
	if cnt90 > 0 {
		d.AvgPrice90 = sum90 / cnt90
	}

	now := time.Now().UTC()
	d.LastCrawledAt = &now
}

// ClassifyPriceLabel выводит метку цены из 30-дневной статистики.
// Без накопленной статистики метка остается NORMAL.
func ClassifyPriceLabel(currentPrice int, detail *ProductDetail) PriceLabel {
	if detail == nil || detail.AvgPrice30 == 0 {
		return PriceLabelNormal
	}

	switch {
	case detail.LowPrice30 > 0 && currentPrice <= detail.LowPrice30:
		return PriceLabelLowest
	case currentPrice < detail.AvgPrice30:
		return PriceLabelCheap
	case detail.HighPrice30 > 0 && currentPrice > detail.HighPrice30:
		return PriceLabelExpensive
	default:
		return PriceLabelNormal
	}
}
