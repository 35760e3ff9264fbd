package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/athebyme/pricewatch-service/internal/adapters/messaging"
	"github.com/athebyme/pricewatch-service/internal/adapters/storage"
	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
)

const (
	defaultBaselineLookbackDays = 30
	defaultDetectionLockTTL     = 5 * time.Minute
)

// DetectionService ищет манипуляции ценами в окнах мониторинга активных
// праздников и фиксирует обнаруженные фейковые скидки
type DetectionService struct {
	repository postgres.Port
	cache      interfaces.CachePort
	messaging  interfaces.MessagingPort
	wishlists  *WishlistService
	logger     interfaces.LoggerPort

	policy       ScoringPolicy
	rules        []PatternRule
	lookbackDays int
	lockTTL      time.Duration
}

// NewDetectionService создает новый экземпляр DetectionService.
// lookbackDays задает, насколько раньше начала окна брать историю для базовой цены.
func NewDetectionService(
	repository postgres.Port,
	cache interfaces.CachePort,
	msg interfaces.MessagingPort,
	wishlists *WishlistService,
	logger interfaces.LoggerPort,
	policy ScoringPolicy,
	rules []PatternRule,
	lookbackDays int,
	lockTTL time.Duration,
) *DetectionService {
	if lookbackDays <= 0 {
		lookbackDays = defaultBaselineLookbackDays
	}
	if lockTTL <= 0 {
		lockTTL = defaultDetectionLockTTL
	}
	if rules == nil {
		rules = DefaultPatternRules()
	}
	return &DetectionService{
		repository:   repository,
		cache:        cache,
		messaging:    msg,
		wishlists:    wishlists,
		logger:       logger,
		policy:       policy,
		rules:        rules,
		lookbackDays: lookbackDays,
		lockTTL:      lockTTL,
	}
}

// Run выполняет проход детектора: для каждого активного праздника, окно которого
// накрывает asOf, проверяются все товары с историей внутри окна.
// Возвращает число новых зафиксированных инцидентов.
func (s *DetectionService) Run(ctx context.Context, asOf time.Time) (int, error) {
	holidays, err := s.repository.ListActiveHolidaysForDate(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to list active holidays: %w", err)
	}
	if len(holidays) == 0 {
		s.logger.DebugWithContext(ctx, "нет активных окон мониторинга", "as_of", asOf)
		return 0, nil
	}

	detected := 0
	for _, holiday := range holidays {
		productIDs, err := s.repository.ListProductIDsWithHistoryBetween(ctx,
			*holiday.MonitoringStartDate, *holiday.MonitoringEndDate)
		if err != nil {
			return detected, fmt.Errorf("failed to list products for holiday %s: %w", holiday.ID, err)
		}

		s.logger.InfoWithContext(ctx, "проход детектора по празднику",
			"holiday_id", holiday.ID, "holiday", holiday.Name, "products", len(productIDs))

		for _, productID := range productIDs {
			detection, err := s.DetectProduct(ctx, productID, holiday)
			if err != nil {
				s.logger.ErrorWithContext(ctx, "детекция товара не удалась",
					"product_id", productID, "holiday_id", holiday.ID, "error", err)
				continue
			}
			if detection != nil {
				detected++
			}
		}
	}
	return detected, nil
}

// DetectProduct прогоняет детектор для одного товара в окне одного праздника.
// Возвращает nil без ошибки, если паттерн не найден, инцидент уже зафиксирован
// или товар сейчас анализируется другим проходом.
func (s *DetectionService) DetectProduct(ctx context.Context, productID string, holiday *models.Holiday) (*models.FakeDiscountHistory, error) {
	lockKey := detectionLockKey(productID)
	acquired, err := s.cache.Lock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire detection lock: %w", err)
	}
	if !acquired {
		s.logger.DebugWithContext(ctx, "товар уже анализируется", "product_id", productID)
		return nil, nil
	}
	defer func() {
		if err := s.cache.Unlock(ctx, lockKey); err != nil {
			s.logger.WarnWithContext(ctx, "не удалось снять блокировку детектора",
				"product_id", productID, "error", err)
		}
	}()

	// История берется с запасом до начала окна, чтобы была видна базовая цена
	from := holiday.MonitoringStartDate.AddDate(0, 0, -s.lookbackDays)
	history, err := s.repository.GetHistoryRange(ctx, productID, from, *holiday.MonitoringEndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	incident := AnalyzeHistory(history, *holiday.MonitoringStartDate, *holiday.MonitoringEndDate)
	if incident == nil {
		return nil, nil // нет полного цикла - нет обнаружения
	}
	if incident.RateGap() < s.policy.MinRateGap {
		return nil, nil
	}

	existing, err := s.repository.GetDetection(ctx, productID, holiday.ID, incident.RaisedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing detection: %w", err)
	}
	if existing != nil {
		return nil, nil // инцидент уже зафиксирован, повтор - no-op
	}

	daysFromHoliday := int(holiday.HolidayDate.Sub(incident.RaisedAt).Hours() / 24)
	score := s.policy.Score(incident.RateGap(), daysFromHoliday)
	pattern := ClassifyPattern(s.rules, incident)

	detection := models.NewFakeDiscountHistory(
		productID, holiday.ID,
		incident.PriceBeforeRaise, incident.RaisedPrice, incident.DiscountedPrice,
		incident.RaisedAt, score, pattern)

	product, err := s.saveDetection(ctx, detection)
	if err != nil {
		return nil, err
	}

	s.logger.InfoWithContext(ctx, "зафиксирована фейковая скидка",
		"product_id", productID, "holiday_id", holiday.ID,
		"fake_rate", detection.FakeDiscountRate, "real_rate", detection.RealDiscountRate,
		"confidence", detection.ConfidenceScore, "pattern", detection.PatternType)

	s.publishDetection(ctx, detection, holiday)
	if err := s.wishlists.NotifyFakeDiscount(ctx, product, detection); err != nil {
		s.logger.ErrorWithContext(ctx, "уведомление владельцев избранного не удалось",
			"product_id", productID, "error", err)
	}
	return detection, nil
}

// saveDetection атомарно записывает инцидент и обновляет кэшированные
// поля фейковой скидки на самом товаре
func (s *DetectionService) saveDetection(ctx context.Context, detection *models.FakeDiscountHistory) (*models.Product, error) {
	txCtx, err := s.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.repository.SaveDetection(txCtx, detection); err != nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("failed to save detection: %w", err)
	}

	product, err := s.repository.GetProduct(txCtx, detection.ProductID)
	if err != nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("product %s not found", detection.ProductID)
	}

	product.UpdateFakeDiscount(true, detection.ConfidenceScore)
	if err := s.repository.SaveProduct(txCtx, product); err != nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	if err := s.repository.CommitTx(txCtx); err != nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Запись товара обновлена, закэшированная копия для API устарела
	if err := s.cache.Delete(ctx, productCacheKey(product.ID)); err != nil {
		s.logger.WarnWithContext(ctx, "не удалось сбросить кэш товара",
			"product_id", product.ID, "error", err)
	}
	return product, nil
}

func (s *DetectionService) publishDetection(ctx context.Context, detection *models.FakeDiscountHistory, holiday *models.Holiday) {
	event := messaging.FakeDiscountDetectedEvent{
		Event:            messaging.NewEvent(messaging.EventFakeDiscountDetected),
		ProductID:        detection.ProductID,
		HolidayID:        detection.HolidayID,
		HolidayName:      holiday.Name,
		FakeDiscountRate: detection.FakeDiscountRate,
		RealDiscountRate: detection.RealDiscountRate,
		ConfidenceScore:  detection.ConfidenceScore,
		PatternType:      string(detection.PatternType),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "не удалось сериализовать событие детекции",
			"product_id", detection.ProductID, "error", err)
		return
	}
	if err := s.messaging.Publish(ctx, messaging.TopicFakeDiscountEvents, payload); err != nil {
		s.logger.ErrorWithContext(ctx, "не удалось опубликовать событие детекции",
			"product_id", detection.ProductID, "error", err)
	}
}

// ListDetections возвращает зафиксированные инциденты товара
func (s *DetectionService) ListDetections(ctx context.Context, productID string) ([]*models.FakeDiscountHistory, error) {
	detections, err := s.repository.ListDetectionsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	return detections, nil
}

func detectionLockKey(productID string) string {
	return "detector:lock:" + productID
}
