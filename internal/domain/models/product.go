package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceLabel представляет производную классификацию текущей цены товара
// относительно его 30-дневной статистики
type PriceLabel string

const (
	// PriceLabelLowest - цена не выше 30-дневного минимума
	PriceLabelLowest PriceLabel = "LOWEST"
	// PriceLabelCheap - цена ниже 30-дневной средней
	PriceLabelCheap PriceLabel = "CHEAP"
	// PriceLabelNormal - цена в пределах обычного диапазона
	PriceLabelNormal PriceLabel = "NORMAL"
	// PriceLabelExpensive - цена выше 30-дневного максимума
	PriceLabelExpensive PriceLabel = "EXPENSIVE"
)

// Product представляет текущее известное состояние отслеживаемого товара.
// Принадлежит конвейеру обхода: обновляется при каждом успешном обходе.
type Product struct {
	ID                string     `json:"id"`
	ProductNumber     int64      `json:"product_number"`
	Name              string     `json:"name"`
	Brand             string     `json:"brand,omitempty"`
	ImgURL            string     `json:"img_url,omitempty"`
	CurrentPrice      int        `json:"current_price"`
	OriginalPrice     int        `json:"original_price,omitempty"`
	DiscountRate      int        `json:"discount_rate,omitempty"`
	StarScore         float64    `json:"star_score,omitempty"`
	ReviewCount       int        `json:"review_count,omitempty"`
	LikeCount         int        `json:"like_count,omitempty"`
	ShopType          ShopType   `json:"shop_type"`
	PriceLabel        PriceLabel `json:"price_label"`
	IsFakeDiscount    bool       `json:"is_fake_discount"`
	FakeDiscountScore int        `json:"fake_discount_score,omitempty"`
	CategoryID        string     `json:"category_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewProduct создает товар из номера и магазина с метками по умолчанию
func NewProduct(productNumber int64, name string, shopType ShopType) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:            uuid.New().String(),
		ProductNumber: productNumber,
		Name:          name,
		ShopType:      shopType,
		PriceLabel:    PriceLabelNormal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UpdatePrice обновляет ценовые поля товара
func (p *Product) UpdatePrice(currentPrice, originalPrice, discountRate int) {
	p.CurrentPrice = currentPrice
	p.OriginalPrice = originalPrice
	p.DiscountRate = discountRate
	p.UpdatedAt = time.Now().UTC()
}

// UpdatePriceLabel обновляет классификацию цены
func (p *Product) UpdatePriceLabel(label PriceLabel) {
	p.PriceLabel = label
	p.UpdatedAt = time.Now().UTC()
}

// UpdateFakeDiscount обновляет кэшированные поля последнего обнаружения
func (p *Product) UpdateFakeDiscount(isFake bool, score int) {
	p.IsFakeDiscount = isFake
	p.FakeDiscountScore = score
	p.UpdatedAt = time.Now().UTC()
}

// UpdateReviewInfo обновляет рейтинг и количество отзывов
func (p *Product) UpdateReviewInfo(starScore float64, reviewCount int) {
	p.StarScore = starScore
	p.ReviewCount = reviewCount
	p.UpdatedAt = time.Now().UTC()
}

// UpdateLikeCount обновляет количество лайков
func (p *Product) UpdateLikeCount(likeCount int) {
	p.LikeCount = likeCount
	p.UpdatedAt = time.Now().UTC()
}

// ProductHistory представляет неизменяемый дневной снимок цены товара.
// Журнал append-only: одна логическая запись на товар в день,
// единственный нужный детектору порядок доступа - по дате.
type ProductHistory struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	Price         int       `json:"price"`
	OriginalPrice int       `json:"original_price,omitempty"`
	DiscountRate  int       `json:"discount_rate,omitempty"`
	Date          time.Time `json:"date"`
}

// NewProductHistory создает дневной снимок цены товара на указанную дату
func NewProductHistory(productID string, price, originalPrice, discountRate int, date time.Time) *ProductHistory {
	return &ProductHistory{
		ID:            uuid.New().String(),
		ProductID:     productID,
		Price:         price,
		OriginalPrice: originalPrice,
		DiscountRate:  discountRate,
		Date:          DateOnly(date),
	}
}
