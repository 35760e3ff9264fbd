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

// SaveWishlist сохраняет позицию избранного.
// Пара (user_id, product_id) уникальна: повторное добавление того же товара
// обновляет целевую цену вместо создания дубликата.
func (r *Storage) SaveWishlist(ctx context.Context, wishlist *models.Wishlist) error {
	q := r.getExecutor(ctx)

	if wishlist.ID == "" {
		wishlist.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if wishlist.CreatedAt.IsZero() {
		wishlist.CreatedAt = now
	}
	wishlist.UpdatedAt = now

	query := `
		INSERT INTO pricewatch.wishlists (id, user_id, product_id, target_price,
			notification_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET
			target_price = $4,
			notification_enabled = $5,
			updated_at = $7
	`
	_, err := q.Exec(ctx, query,
		wishlist.ID, wishlist.UserID, wishlist.ProductID, wishlist.TargetPrice,
		wishlist.NotificationEnabled, wishlist.CreatedAt, wishlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save wishlist: %w", err)
	}
	return nil
}

// GetWishlist получает позицию избранного по ID
func (r *Storage) GetWishlist(ctx context.Context, wishlistID string) (*models.Wishlist, error) {
	q := r.getExecutor(ctx)

	query := wishlistSelectColumns + `
		FROM pricewatch.wishlists
		WHERE id = $1
	`
	wishlist, err := scanWishlist(q.QueryRow(ctx, query, wishlistID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	return wishlist, nil
}

// ListWishlistsByProduct возвращает все позиции избранного с данным товаром
func (r *Storage) ListWishlistsByProduct(ctx context.Context, productID string) ([]*models.Wishlist, error) {
	q := r.getExecutor(ctx)

	query := wishlistSelectColumns + `
		FROM pricewatch.wishlists
		WHERE product_id = $1
	`
	rows, err := q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists by product: %w", err)
	}
	defer rows.Close()

	return collectWishlists(rows)
}

// ListWishlistsByUser возвращает избранное пользователя, свежее впереди
func (r *Storage) ListWishlistsByUser(ctx context.Context, userID string) ([]*models.Wishlist, error) {
	q := r.getExecutor(ctx)

	query := wishlistSelectColumns + `
		FROM pricewatch.wishlists
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists by user: %w", err)
	}
	defer rows.Close()

	return collectWishlists(rows)
}

// DeleteWishlist удаляет позицию избранного
func (r *Storage) DeleteWishlist(ctx context.Context, wishlistID string) error {
	q := r.getExecutor(ctx)

	_, err := q.Exec(ctx, `DELETE FROM pricewatch.wishlists WHERE id = $1`, wishlistID)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist: %w", err)
	}
	return nil
}

// SaveUser сохраняет пользователя
func (r *Storage) SaveUser(ctx context.Context, user *models.User) error {
	q := r.getExecutor(ctx)

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `
		INSERT INTO pricewatch.users (id, email, nickname, notification_enabled, fcm_token,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			email = $2,
			nickname = $3,
			notification_enabled = $4,
			fcm_token = $5,
			updated_at = $7
	`
	_, err := q.Exec(ctx, query,
		user.ID, user.Email, user.Nickname, user.NotificationEnabled, user.FcmToken,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetUser получает пользователя по ID
func (r *Storage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	q := r.getExecutor(ctx)

	query := `
		SELECT id, email, nickname, notification_enabled, fcm_token, created_at, updated_at
		FROM pricewatch.users
		WHERE id = $1
	`
	var user models.User
	err := q.QueryRow(ctx, query, userID).Scan(
		&user.ID, &user.Email, &user.Nickname, &user.NotificationEnabled, &user.FcmToken,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SaveNotification сохраняет уведомление
func (r *Storage) SaveNotification(ctx context.Context, notification *models.Notification) error {
	q := r.getExecutor(ctx)

	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO pricewatch.notifications (id, user_id, product_id, notification_type,
			title, message, is_read, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			is_read = $7,
			sent_at = $8
	`
	_, err := q.Exec(ctx, query,
		notification.ID, notification.UserID, notification.ProductID, notification.NotificationType,
		notification.Title, notification.Message, notification.IsRead, notification.SentAt,
		notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// ListNotificationsByUser возвращает уведомления пользователя, свежие впереди
func (r *Storage) ListNotificationsByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	q := r.getExecutor(ctx)

	query := `
		SELECT id, user_id, product_id, notification_type, title, message, is_read, sent_at, created_at
		FROM pricewatch.notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var notification models.Notification
		err := rows.Scan(
			&notification.ID, &notification.UserID, &notification.ProductID,
			&notification.NotificationType, &notification.Title, &notification.Message,
			&notification.IsRead, &notification.SentAt, &notification.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, &notification)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error while iterating notification rows: %w", rows.Err())
	}
	return notifications, nil
}

// SaveCategory сохраняет категорию
func (r *Storage) SaveCategory(ctx context.Context, category *models.Category) error {
	q := r.getExecutor(ctx)

	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO pricewatch.categories (id, name, parent_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET
			name = $2,
			parent_id = $3
	`
	_, err := q.Exec(ctx, query,
		category.ID, category.Name, nullIfEmpty(category.ParentID), category.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

// ListCategories возвращает все категории, по имени
func (r *Storage) ListCategories(ctx context.Context) ([]*models.Category, error) {
	q := r.getExecutor(ctx)

	query := `
		SELECT id, name, parent_id, created_at
		FROM pricewatch.categories
		ORDER BY name
	`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var category models.Category
		var parentID *string
		if err := rows.Scan(&category.ID, &category.Name, &parentID, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		if parentID != nil {
			category.ParentID = *parentID
		}
		categories = append(categories, &category)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error while iterating category rows: %w", rows.Err())
	}
	return categories, nil
}

const wishlistSelectColumns = `
	SELECT id, user_id, product_id, target_price, notification_enabled, created_at, updated_at
`

func scanWishlist(row pgx.Row) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := row.Scan(
		&wishlist.ID, &wishlist.UserID, &wishlist.ProductID, &wishlist.TargetPrice,
		&wishlist.NotificationEnabled, &wishlist.CreatedAt, &wishlist.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

func collectWishlists(rows pgx.Rows) ([]*models.Wishlist, error) {
	var wishlists []*models.Wishlist
	for rows.Next() {
		wishlist, err := scanWishlist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist row: %w", err)
		}
		wishlists = append(wishlists, wishlist)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error while iterating wishlist rows: %w", rows.Err())
	}
	return wishlists, nil
}
