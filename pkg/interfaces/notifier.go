package interfaces

import "context"

// NotifierPort определяет интерфейс для доставки уведомлений пользователям.
// Механика доставки (push, email и т.д.) полностью скрыта за реализацией.
type NotifierPort interface {
	// Notify отправляет пользователю уведомление указанного типа о продукте
	Notify(ctx context.Context, userID, productID, kind, title, message string) error
}
