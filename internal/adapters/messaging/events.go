package messaging

import "time"

// Топики событий сервиса
const (
	TopicCrawlEvents        = "pricewatch.crawl-events"
	TopicPriceEvents        = "pricewatch.price-events"
	TopicFakeDiscountEvents = "pricewatch.fake-discount-events"
	TopicNotifications      = "pricewatch.notifications"
)

// Типы событий
const (
	EventJobCompleted         = "job_completed"
	EventPriceUpdated         = "price_updated"
	EventFakeDiscountDetected = "fake_discount_detected"
	EventNotificationCreated  = "notification_created"
)

// Event общий конверт события
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
}

// JobCompletedEvent публикуется по завершении задания обхода,
// успешном или нет
type JobCompletedEvent struct {
	Event
	JobID        string `json:"job_id"`
	ShopType     string `json:"shop_type"`
	Status       string `json:"status"`
	TotalCount   int    `json:"total_count"`
	SuccessCount int    `json:"success_count"`
	FailCount    int    `json:"fail_count"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// PriceUpdatedEvent публикуется при изменении цены товара в ходе обхода
type PriceUpdatedEvent struct {
	Event
	ProductID     string `json:"product_id"`
	ProductNumber int64  `json:"product_number"`
	ShopType      string `json:"shop_type"`
	OldPrice      int    `json:"old_price"`
	NewPrice      int    `json:"new_price"`
	PriceLabel    string `json:"price_label"`
}

// FakeDiscountDetectedEvent публикуется при фиксации инцидента фейковой скидки
type FakeDiscountDetectedEvent struct {
	Event
	ProductID        string `json:"product_id"`
	HolidayID        string `json:"holiday_id"`
	HolidayName      string `json:"holiday_name"`
	FakeDiscountRate int    `json:"fake_discount_rate"`
	RealDiscountRate int    `json:"real_discount_rate"`
	ConfidenceScore  int    `json:"confidence_score"`
	PatternType      string `json:"pattern_type"`
}

// NotificationCreatedEvent публикуется для доставки уведомления пользователю
type NotificationCreatedEvent struct {
	Event
	NotificationID   string `json:"notification_id"`
	UserID           string `json:"user_id"`
	ProductID        string `json:"product_id"`
	NotificationType string `json:"notification_type"`
	Title            string `json:"title"`
	Message          string `json:"message,omitempty"`
}

// NewEvent строит конверт события с текущим временем
func NewEvent(eventType string) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC()}
}
