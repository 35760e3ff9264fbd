package interfaces

import "context"

// CrawlItem представляет одну единицу работы в рамках пакетного обхода
type CrawlItem struct {
	ProductNumber int64  `json:"product_number"`
	ProductURL    string `json:"product_url"`
}

// ProductSnapshot представляет разобранное состояние товара на момент обхода
type ProductSnapshot struct {
	ProductNumber int64   `json:"product_number"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand,omitempty"`
	ImgURL        string  `json:"img_url,omitempty"`
	ProductURL    string  `json:"product_url"`
	CurrentPrice  int     `json:"current_price"`
	OriginalPrice int     `json:"original_price,omitempty"`
	DiscountRate  int     `json:"discount_rate,omitempty"`
	StarScore     float64 `json:"star_score,omitempty"`
	ReviewCount   int     `json:"review_count,omitempty"`
	LikeCount     int     `json:"like_count,omitempty"`
	CategoryID    string  `json:"category_id,omitempty"`
}

// CrawlerPort определяет интерфейс внешнего сборщика данных о товарах.
// Транспорт (HTTP-скрейпинг, API магазина) находится за пределами ядра:
// реализация обязана возвращать либо разобранный снимок, либо ошибку,
// никогда не блокируя вызывающего бесконечно.
type CrawlerPort interface {
	// FetchCatalog возвращает список единиц работы для полного обхода магазина
	FetchCatalog(ctx context.Context, shopType string) ([]CrawlItem, error)

	// FetchProduct загружает и разбирает снимок одного товара
	FetchProduct(ctx context.Context, shopType string, item CrawlItem) (*ProductSnapshot, error)

	// FetchByURL загружает и разбирает снимок товара по пользовательской ссылке
	FetchByURL(ctx context.Context, shopType string, productURL string) (*ProductSnapshot, error)
}
