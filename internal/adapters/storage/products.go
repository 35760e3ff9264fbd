package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveProduct сохраняет товар. Товар идентифицируется парой (shop_type, product_number):
// повторный обход того же товара обновляет существующую запись.
func (r *Storage) SaveProduct(ctx context.Context, product *models.Product) error {
	q := r.getExecutor(ctx)

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	query := `
		INSERT INTO pricewatch.products (id, product_number, name, brand, img_url,
			current_price, original_price, discount_rate, star_score, review_count, like_count,
			shop_type, price_label, is_fake_discount, fake_discount_score, category_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (shop_type, product_number)
		DO UPDATE SET
			name = $3,
			brand = $4,
			img_url = $5,
			current_price = $6,
			original_price = $7,
			discount_rate = $8,
			star_score = $9,
			review_count = $10,
			like_count = $11,
			price_label = $13,
			is_fake_discount = $14,
			fake_discount_score = $15,
			category_id = $16,
			updated_at = $18
	`

	_, err := q.Exec(ctx, query,
		product.ID, product.ProductNumber, product.Name, product.Brand, product.ImgURL,
		product.CurrentPrice, product.OriginalPrice, product.DiscountRate,
		product.StarScore, product.ReviewCount, product.LikeCount,
		product.ShopType, product.PriceLabel, product.IsFakeDiscount, product.FakeDiscountScore,
		nullIfEmpty(product.CategoryID), product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	// При конфликте действующий ID берем из базы, а не из аргумента
	row := q.QueryRow(ctx,
		`SELECT id FROM pricewatch.products WHERE shop_type = $1 AND product_number = $2`,
		product.ShopType, product.ProductNumber)
	if err := row.Scan(&product.ID); err != nil {
		return fmt.Errorf("failed to resolve product id: %w", err)
	}
	return nil
}

// GetProduct получает товар по ID
func (r *Storage) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	q := r.getExecutor(ctx)

	query := productSelectColumns + `
		FROM pricewatch.products
		WHERE id = $1
	`
	product, err := scanProduct(q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Товар не найден
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// GetProductByNumber получает товар по номеру в магазине
func (r *Storage) GetProductByNumber(ctx context.Context, shopType models.ShopType, productNumber int64) (*models.Product, error) {
	q := r.getExecutor(ctx)

	query := productSelectColumns + `
		FROM pricewatch.products
		WHERE shop_type = $1 AND product_number = $2
	`
	product, err := scanProduct(q.QueryRow(ctx, query, shopType, productNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by number: %w", err)
	}
	return product, nil
}

// ListProducts возвращает страницу товаров магазина, свежие впереди
func (r *Storage) ListProducts(ctx context.Context, shopType models.ShopType, page, pageSize int) ([]*models.Product, int, error) {
	q := r.getExecutor(ctx)

	var total int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM pricewatch.products WHERE shop_type = $1`, shopType).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	if total == 0 {
		return []*models.Product{}, 0, nil
	}

	query := productSelectColumns + `
		FROM pricewatch.products
		WHERE shop_type = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.Query(ctx, query, shopType, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListFakeDiscountProducts возвращает страницу товаров, помеченных детектором
func (r *Storage) ListFakeDiscountProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {
	q := r.getExecutor(ctx)

	var total int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM pricewatch.products WHERE is_fake_discount`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count fake discount products: %w", err)
	}
	if total == 0 {
		return []*models.Product{}, 0, nil
	}

	query := productSelectColumns + `
		FROM pricewatch.products
		WHERE is_fake_discount
		ORDER BY fake_discount_score DESC, updated_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := q.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list fake discount products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// SaveProductDetail сохраняет агрегированную статистику цен товара
func (r *Storage) SaveProductDetail(ctx context.Context, detail *models.ProductDetail) error {
	q := r.getExecutor(ctx)

	if detail.ID == "" {
		detail.ID = uuid.New().String()
	}

	query := `
		INSERT INTO pricewatch.product_details (id, product_id, product_url,
			high_price_30, low_price_30, avg_price_30,
			high_price_90, low_price_90, avg_price_90, last_crawled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (product_id)
		DO UPDATE SET
			product_url = $3,
			high_price_30 = $4,
			low_price_30 = $5,
			avg_price_30 = $6,
			high_price_90 = $7,
			low_price_90 = $8,
			avg_price_90 = $9,
			last_crawled_at = $10
	`
	_, err := q.Exec(ctx, query,
		detail.ID, detail.ProductID, detail.ProductURL,
		detail.HighPrice30, detail.LowPrice30, detail.AvgPrice30,
		detail.HighPrice90, detail.LowPrice90, detail.AvgPrice90, detail.LastCrawledAt)
	if err != nil {
		return fmt.Errorf("failed to save product detail: %w", err)
	}
	return nil
}

// GetProductDetail получает статистику цен товара
func (r *Storage) GetProductDetail(ctx context.Context, productID string) (*models.ProductDetail, error) {
	q := r.getExecutor(ctx)

	query := `
		SELECT id, product_id, product_url,
			high_price_30, low_price_30, avg_price_30,
			high_price_90, low_price_90, avg_price_90, last_crawled_at
		FROM pricewatch.product_details
		WHERE product_id = $1
	`
	var detail models.ProductDetail
	err := q.QueryRow(ctx, query, productID).Scan(
		&detail.ID, &detail.ProductID, &detail.ProductURL,
		&detail.HighPrice30, &detail.LowPrice30, &detail.AvgPrice30,
		&detail.HighPrice90, &detail.LowPrice90, &detail.AvgPrice90, &detail.LastCrawledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product detail: %w", err)
	}
	return &detail, nil
}

// SaveHistory сохраняет дневную точку истории цен.
// Для пары (product_id, date) хранится одна запись: повторный обход
// в тот же день перезаписывает цену.
func (r *Storage) SaveHistory(ctx context.Context, record *models.ProductHistory) error {
	q := r.getExecutor(ctx)

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.Date = models.DateOnly(record.Date)

	query := `
		INSERT INTO pricewatch.product_history (id, product_id, price, original_price, discount_rate, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, date)
		DO UPDATE SET
			price = $3,
			original_price = $4,
			discount_rate = $5
	`
	_, err := q.Exec(ctx, query,
		record.ID, record.ProductID, record.Price, record.OriginalPrice, record.DiscountRate, record.Date)
	if err != nil {
		return fmt.Errorf("failed to save product history: %w", err)
	}
	return nil
}

// GetHistoryRange возвращает историю цен товара за период, по возрастанию даты
func (r *Storage) GetHistoryRange(ctx context.Context, productID string, from, to time.Time) ([]*models.ProductHistory, error) {
	q := r.getExecutor(ctx)

	query := `
		SELECT id, product_id, price, original_price, discount_rate, date
		FROM pricewatch.product_history
		WHERE product_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`
	rows, err := q.Query(ctx, query, productID, models.DateOnly(from), models.DateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query product history: %w", err)
	}
	defer rows.Close()

	return collectHistory(rows)
}

// GetRecentHistory возвращает последние записи истории, свежие впереди
func (r *Storage) GetRecentHistory(ctx context.Context, productID string, limit int) ([]*models.ProductHistory, error) {
	q := r.getExecutor(ctx)

	query := `
		SELECT id, product_id, price, original_price, discount_rate, date
		FROM pricewatch.product_history
		WHERE product_id = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := q.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent history: %w", err)
	}
	defer rows.Close()

	return collectHistory(rows)
}

// ListProductIDsWithHistoryBetween возвращает ID товаров, у которых есть
// хотя бы одна точка истории в заданном периоде
func (r *Storage) ListProductIDsWithHistoryBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	q := r.getExecutor(ctx)

	query := `
		SELECT DISTINCT product_id
		FROM pricewatch.product_history
		WHERE date >= $1 AND date <= $2
	`
	rows, err := q.Query(ctx, query, models.DateOnly(from), models.DateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query product ids with history: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan product id row: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error while iterating product id rows: %w", rows.Err())
	}
	return ids, nil
}

const productSelectColumns = `
	SELECT id, product_number, name, brand, img_url,
		current_price, original_price, discount_rate, star_score, review_count, like_count,
		shop_type, price_label, is_fake_discount, fake_discount_score, category_id,
		created_at, updated_at
`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var product models.Product
	var categoryID *string
	err := row.Scan(
		&product.ID, &product.ProductNumber, &product.Name, &product.Brand, &product.ImgURL,
		&product.CurrentPrice, &product.OriginalPrice, &product.DiscountRate,
		&product.StarScore, &product.ReviewCount, &product.LikeCount,
		&product.ShopType, &product.PriceLabel, &product.IsFakeDiscount, &product.FakeDiscountScore,
		&categoryID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if categoryID != nil {
		product.CategoryID = *categoryID
	}
	return &product, nil
}

func collectProducts(rows pgx.Rows) ([]*models.Product, error) {
	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, product)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error while iterating product rows: %w", rows.Err())
	}
	return products, nil
}

func collectHistory(rows pgx.Rows) ([]*models.ProductHistory, error) {
	var records []*models.ProductHistory
	for rows.Next() {
		var record models.ProductHistory
		err := rows.Scan(&record.ID, &record.ProductID, &record.Price,
			&record.OriginalPrice, &record.DiscountRate, &record.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, &record)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error while iterating history rows: %w", rows.Err())
	}
	return records, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
