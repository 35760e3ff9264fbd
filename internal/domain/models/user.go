package models

import (
	"time"

	"github.com/google/uuid"
)

// User представляет справочные данные пользователя, нужные конвейеру
// уведомлений. Управление аккаунтами находится за пределами ядра.
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	Nickname            string    `json:"nickname,omitempty"`
	NotificationEnabled bool      `json:"notification_enabled"`
	FcmToken            string    `json:"fcm_token,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewUser создает пользователя с включенными уведомлениями
func NewUser(email, nickname string) *User {
	now := time.Now().UTC()
	return &User{
		ID:                  uuid.New().String(),
		Email:               email,
		Nickname:            nickname,
		NotificationEnabled: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// UpdateFcmToken обновляет push-токен устройства
func (u *User) UpdateFcmToken(token string) {
	u.FcmToken = token
	u.UpdatedAt = time.Now().UTC()
}

// ToggleNotification включает или выключает уведомления на уровне пользователя
func (u *User) ToggleNotification(enabled bool) {
	u.NotificationEnabled = enabled
	u.UpdatedAt = time.Now().UTC()
}
