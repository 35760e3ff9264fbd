package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus представляет статус пользовательского запроса на обход одной ссылки
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusProcessing RequestStatus = "PROCESSING"
	RequestStatusCompleted  RequestStatus = "COMPLETED"
	RequestStatusFailed     RequestStatus = "FAILED"
)

// IsTerminal сообщает, является ли статус конечным
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusFailed
}

var requestTransitions = map[RequestStatus]map[RequestStatus]bool{
	RequestStatusPending:    {RequestStatusProcessing: true},
	RequestStatusProcessing: {RequestStatusCompleted: true, RequestStatusFailed: true},
}

func requestCanTransit(from, to RequestStatus) bool {
	return requestTransitions[from][to]
}

const maxRequestErrorMessageLen = 1000

// UserProductCrawlRequest представляет запрос пользователя на обход одного товара
// по ссылке. В отличие от пакетного задания ошибка здесь видна пользователю
// напрямую через терминальный статус и сообщение.
type UserProductCrawlRequest struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	ProductURL   string        `json:"product_url"`
	ShopType     ShopType      `json:"shop_type"`
	Status       RequestStatus `json:"status"`
	ProductID    string        `json:"product_id,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	RequestedAt  time.Time     `json:"requested_at"`
	ProcessedAt  *time.Time    `json:"processed_at,omitempty"`
}

// NewUserProductCrawlRequest создает новый запрос в статусе PENDING
func NewUserProductCrawlRequest(userID, productURL string, shopType ShopType) *UserProductCrawlRequest {
	return &UserProductCrawlRequest{
		ID:          uuid.New().String(),
		UserID:      userID,
		ProductURL:  productURL,
		ShopType:    shopType,
		Status:      RequestStatusPending,
		RequestedAt: time.Now().UTC(),
	}
}

// StartProcessing переводит запрос в PROCESSING.
// Повторный вызов для обрабатываемого запроса - no-op.
func (r *UserProductCrawlRequest) StartProcessing() error {
	if r.Status == RequestStatusProcessing {
		return nil
	}
	if !requestCanTransit(r.Status, RequestStatusProcessing) {
		return ErrIllegalJobTransition
	}
	r.Status = RequestStatusProcessing
	return nil
}

// Complete фиксирует успешный результат с идентификатором созданного товара.
// Повторный вызов для завершенного запроса - no-op.
func (r *UserProductCrawlRequest) Complete(productID string) error {
	if r.Status == RequestStatusCompleted {
		return nil
	}
	if !requestCanTransit(r.Status, RequestStatusCompleted) {
		return ErrIllegalJobTransition
	}

	now := time.Now().UTC()
	r.Status = RequestStatusCompleted
	r.ProductID = productID
	r.ProcessedAt = &now
	return nil
}

// Fail фиксирует ошибку обработки запроса с сообщением для пользователя.
// Повторный вызов для проваленного запроса - no-op.
func (r *UserProductCrawlRequest) Fail(message string) error {
	if r.Status == RequestStatusFailed {
		return nil
	}
	if !requestCanTransit(r.Status, RequestStatusFailed) {
		return ErrIllegalJobTransition
	}

	if len(message) > maxRequestErrorMessageLen {
		message = message[:maxRequestErrorMessageLen]
	}

	now := time.Now().UTC()
	r.Status = RequestStatusFailed
	r.ErrorMessage = message
	r.ProcessedAt = &now
	return nil
}
