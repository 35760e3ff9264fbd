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

// SaveDetection сохраняет зафиксированный инцидент фейковой скидки.
// Инцидент идентифицируется тройкой (product_id, holiday_id, raised_at):
// повторный запуск детектора по тем же данным не плодит дубликатов.
func (r *Storage) SaveDetection(ctx context.Context, detection *models.FakeDiscountHistory) error {
	q := r.getExecutor(ctx)

	if detection.ID == "" {
		detection.ID = uuid.New().String()
	}
	if detection.CreatedAt.IsZero() {
		detection.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO pricewatch.fake_discount_history (id, product_id, holiday_id,
			detected_at, raised_at, price_before_raise, raised_price, discounted_price,
			fake_discount_rate, real_discount_rate, confidence_score, pattern_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (product_id, holiday_id, raised_at)
		DO UPDATE SET
			detected_at = $4,
			price_before_raise = $6,
			raised_price = $7,
			discounted_price = $8,
			fake_discount_rate = $9,
			real_discount_rate = $10,
			confidence_score = $11,
			pattern_type = $12
	`
	_, err := q.Exec(ctx, query,
		detection.ID, detection.ProductID, detection.HolidayID,
		detection.DetectedAt, models.DateOnly(detection.RaisedAt),
		detection.PriceBeforeRaise, detection.RaisedPrice, detection.DiscountedPrice,
		detection.FakeDiscountRate, detection.RealDiscountRate,
		detection.ConfidenceScore, detection.PatternType, detection.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save detection: %w", err)
	}
	return nil
}

// GetDetection получает инцидент по его естественному ключу
func (r *Storage) GetDetection(ctx context.Context, productID, holidayID string, raisedAt time.Time) (*models.FakeDiscountHistory, error) {
	q := r.getExecutor(ctx)

	query := detectionSelectColumns + `
		FROM pricewatch.fake_discount_history
		WHERE product_id = $1 AND holiday_id = $2 AND raised_at = $3
	`
	detection, err := scanDetection(q.QueryRow(ctx, query, productID, holidayID, models.DateOnly(raisedAt)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Инцидент не зафиксирован
		}
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}
	return detection, nil
}

// ListDetectionsByProduct возвращает инциденты товара, свежие впереди
func (r *Storage) ListDetectionsByProduct(ctx context.Context, productID string) ([]*models.FakeDiscountHistory, error) {
	q := r.getExecutor(ctx)

	query := detectionSelectColumns + `
		FROM pricewatch.fake_discount_history
		WHERE product_id = $1
		ORDER BY detected_at DESC
	`
	rows, err := q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	var detections []*models.FakeDiscountHistory
	for rows.Next() {
		detection, err := scanDetection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection row: %w", err)
		}
		detections = append(detections, detection)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error while iterating detection rows: %w", rows.Err())
	}
	return detections, nil
}

const detectionSelectColumns = `
	SELECT id, product_id, holiday_id,
		detected_at, raised_at, price_before_raise, raised_price, discounted_price,
		fake_discount_rate, real_discount_rate, confidence_score, pattern_type, created_at
`

func scanDetection(row pgx.Row) (*models.FakeDiscountHistory, error) {
	var detection models.FakeDiscountHistory
	err := row.Scan(
		&detection.ID, &detection.ProductID, &detection.HolidayID,
		&detection.DetectedAt, &detection.RaisedAt,
		&detection.PriceBeforeRaise, &detection.RaisedPrice, &detection.DiscountedPrice,
		&detection.FakeDiscountRate, &detection.RealDiscountRate,
		&detection.ConfidenceScore, &detection.PatternType, &detection.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &detection, nil
}
