package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType представляет тип события, породившего уведомление
type NotificationType string

const (
	NotificationTypeTargetPrice  NotificationType = "TARGET_PRICE_REACHED"
	NotificationTypeFakeDiscount NotificationType = "FAKE_DISCOUNT_DETECTED"
	NotificationTypePriceDrop    NotificationType = "PRICE_DROP"
)

// Notification представляет сохраненное уведомление пользователя о товаре
type Notification struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	ProductID        string           `json:"product_id"`
	NotificationType NotificationType `json:"notification_type"`
	Title            string           `json:"title"`
	Message          string           `json:"message,omitempty"`
	IsRead           bool             `json:"is_read"`
	SentAt           *time.Time       `json:"sent_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewNotification создает непрочитанное уведомление
func NewNotification(userID, productID string, kind NotificationType, title, message string) *Notification {
	return &Notification{
		ID:               uuid.New().String(),
		UserID:           userID,
		ProductID:        productID,
		NotificationType: kind,
		Title:            title,
		Message:          message,
		CreatedAt:        time.Now().UTC(),
	}
}

// MarkAsRead помечает уведомление прочитанным
func (n *Notification) MarkAsRead() {
	n.IsRead = true
}

// MarkAsSent фиксирует время фактической отправки
func (n *Notification) MarkAsSent() {
	now := time.Now().UTC()
	n.SentAt = &now
}
