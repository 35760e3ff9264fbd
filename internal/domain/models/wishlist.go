package models

import (
	"time"

	"github.com/google/uuid"
)

// Wishlist связывает пользователя и товар с необязательной целевой ценой.
// Пара (пользователь, товар) уникальна.
type Wishlist struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	ProductID           string    `json:"product_id"`
	TargetPrice         int       `json:"target_price,omitempty"`
	NotificationEnabled bool      `json:"notification_enabled"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewWishlist создает запись избранного с включенными уведомлениями
func NewWishlist(userID, productID string, targetPrice int) *Wishlist {
	now := time.Now().UTC()
	return &Wishlist{
		ID:                  uuid.New().String(),
		UserID:              userID,
		ProductID:           productID,
		TargetPrice:         targetPrice,
		NotificationEnabled: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// UpdateTargetPrice устанавливает новую целевую цену
func (w *Wishlist) UpdateTargetPrice(targetPrice int) {
	w.TargetPrice = targetPrice
	w.UpdatedAt = time.Now().UTC()
}

// ToggleNotification включает или выключает уведомления
func (w *Wishlist) ToggleNotification(enabled bool) {
	w.NotificationEnabled = enabled
	w.UpdatedAt = time.Now().UTC()
}

// HasTargetPrice сообщает, установлена ли целевая цена
func (w *Wishlist) HasTargetPrice() bool {
	return w.TargetPrice > 0
}

// IsTargetPriceReached сообщает, достигла ли текущая цена целевой.
// Чистый предикат: имеет смысл только при установленной целевой цене.
func (w *Wishlist) IsTargetPriceReached(currentPrice int) bool {
	return w.HasTargetPrice() && currentPrice <= w.TargetPrice
}
