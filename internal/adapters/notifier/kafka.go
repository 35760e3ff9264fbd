package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/athebyme/pricewatch-service/internal/adapters/messaging"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
	"github.com/google/uuid"
)

// KafkaNotifier доставляет уведомления через топик Kafka.
// Непосредственной отправкой push-сообщений занимается отдельный потребитель.
type KafkaNotifier struct {
	messaging interfaces.MessagingPort
	logger    interfaces.LoggerPort
}

func NewKafkaNotifier(msg interfaces.MessagingPort, logger interfaces.LoggerPort) *KafkaNotifier {
	return &KafkaNotifier{messaging: msg, logger: logger}
}

// Notify публикует событие уведомления в топик доставки
func (n *KafkaNotifier) Notify(ctx context.Context, userID, productID, kind, title, message string) error {
	event := messaging.NotificationCreatedEvent{
		Event:            messaging.NewEvent(messaging.EventNotificationCreated),
		NotificationID:   uuid.New().String(),
		UserID:           userID,
		ProductID:        productID,
		NotificationType: kind,
		Title:            title,
		Message:          message,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	if err := n.messaging.Publish(ctx, messaging.TopicNotifications, payload); err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	n.logger.DebugWithContext(ctx, "уведомление опубликовано",
		"user_id", userID, "product_id", productID, "type", kind)
	return nil
}
