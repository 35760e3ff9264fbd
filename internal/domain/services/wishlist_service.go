package services

import (
	"context"
	"fmt"

	"github.com/athebyme/pricewatch-service/internal/adapters/storage"
	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/pkg/errors"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
)

// WishlistService предоставляет бизнес-логику для избранного:
// управление позициями и срабатывание по целевой цене
type WishlistService struct {
	repository postgres.Port
	cache      interfaces.CachePort
	notifier   interfaces.NotifierPort
	logger     interfaces.LoggerPort
}

// NewWishlistService создает новый экземпляр WishlistService
func NewWishlistService(
	repository postgres.Port,
	cache interfaces.CachePort,
	notifier interfaces.NotifierPort,
	logger interfaces.LoggerPort,
) *WishlistService {
	return &WishlistService{
		repository: repository,
		cache:      cache,
		notifier:   notifier,
		logger:     logger,
	}
}

// AddToWishlist добавляет товар в избранное пользователя.
// Повторное добавление того же товара обновляет целевую цену.
func (s *WishlistService) AddToWishlist(ctx context.Context, userID, productID string, targetPrice int) (*models.Wishlist, error) {
	product, err := s.repository.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, errors.ErrNotFound
	}

	wishlist := models.NewWishlist(userID, productID, targetPrice)
	if err := s.repository.SaveWishlist(ctx, wishlist); err != nil {
		return nil, fmt.Errorf("failed to save wishlist: %w", err)
	}

	s.logger.InfoWithContext(ctx, "товар добавлен в избранное",
		"user_id", userID, "product_id", productID, "target_price", targetPrice)
	return wishlist, nil
}

// UpdateTargetPrice меняет целевую цену позиции избранного.
// Маркер "уже уведомлен" сбрасывается: новая цель означает новое пересечение.
func (s *WishlistService) UpdateTargetPrice(ctx context.Context, wishlistID string, targetPrice int) (*models.Wishlist, error) {
	wishlist, err := s.repository.GetWishlist(ctx, wishlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	if wishlist == nil {
		return nil, errors.ErrNotFound
	}

	wishlist.UpdateTargetPrice(targetPrice)
	if err := s.repository.SaveWishlist(ctx, wishlist); err != nil {
		return nil, fmt.Errorf("failed to save wishlist: %w", err)
	}
	if err := s.cache.Delete(ctx, targetReachedKey(wishlist.ID)); err != nil {
		s.logger.WarnWithContext(ctx, "не удалось сбросить маркер уведомления",
			"wishlist_id", wishlist.ID, "error", err)
	}

	return wishlist, nil
}

// RemoveFromWishlist удаляет позицию избранного
func (s *WishlistService) RemoveFromWishlist(ctx context.Context, wishlistID string) error {
	if err := s.repository.DeleteWishlist(ctx, wishlistID); err != nil {
		return fmt.Errorf("failed to delete wishlist: %w", err)
	}
	if err := s.cache.Delete(ctx, targetReachedKey(wishlistID)); err != nil {
		s.logger.WarnWithContext(ctx, "не удалось сбросить маркер уведомления",
			"wishlist_id", wishlistID, "error", err)
	}
	return nil
}

// ListByUser возвращает избранное пользователя
func (s *WishlistService) ListByUser(ctx context.Context, userID string) ([]*models.Wishlist, error) {
	wishlists, err := s.repository.ListWishlistsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists: %w", err)
	}
	return wishlists, nil
}

// CheckTargetPrice оценивает целевые цены всех позиций избранного с данным
// товаром после обновления его цены. Уведомление отправляется один раз на
// пересечение: пока цена остается ниже цели, повторные обновления молчат;
// подъем выше цели взводит триггер заново.
func (s *WishlistService) CheckTargetPrice(ctx context.Context, product *models.Product) error {
	wishlists, err := s.repository.ListWishlistsByProduct(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to list wishlists by product: %w", err)
	}

	for _, wishlist := range wishlists {
		if !wishlist.HasTargetPrice() {
			continue
		}

		key := targetReachedKey(wishlist.ID)
		if !wishlist.IsTargetPriceReached(product.CurrentPrice) {
			// Цена выше цели - взводим триггер для следующего пересечения
			if err := s.cache.Delete(ctx, key); err != nil {
				s.logger.WarnWithContext(ctx, "не удалось сбросить маркер уведомления",
					"wishlist_id", wishlist.ID, "error", err)
			}
			continue
		}

		if _, err := s.cache.Get(ctx, key); err == nil {
			continue // уже уведомляли на этом пересечении
		} else if err != errors.ErrCacheMiss {
			s.logger.WarnWithContext(ctx, "не удалось проверить маркер уведомления",
				"wishlist_id", wishlist.ID, "error", err)
			continue
		}

		if err := s.notifyTargetReached(ctx, wishlist, product); err != nil {
			s.logger.ErrorWithContext(ctx, "не удалось уведомить о достижении целевой цены",
				"wishlist_id", wishlist.ID, "error", err)
			continue
		}

		if err := s.cache.Set(ctx, key, []byte("1"), 0); err != nil {
			s.logger.WarnWithContext(ctx, "не удалось установить маркер уведомления",
				"wishlist_id", wishlist.ID, "error", err)
		}
	}
	return nil
}

func (s *WishlistService) notifyTargetReached(ctx context.Context, wishlist *models.Wishlist, product *models.Product) error {
	if !wishlist.NotificationEnabled {
		return nil
	}
	if enabled, err := s.userNotificationsEnabled(ctx, wishlist.UserID); err != nil {
		return err
	} else if !enabled {
		return nil
	}

	title := fmt.Sprintf("%s: целевая цена достигнута", product.Name)
	message := fmt.Sprintf("Текущая цена %d не превышает вашу цель %d",
		product.CurrentPrice, wishlist.TargetPrice)

	notification := models.NewNotification(wishlist.UserID, product.ID,
		models.NotificationTypeTargetPrice, title, message)
	if err := s.repository.SaveNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	if err := s.notifier.Notify(ctx, wishlist.UserID, product.ID,
		string(models.NotificationTypeTargetPrice), title, message); err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}

	s.logger.InfoWithContext(ctx, "целевая цена достигнута",
		"wishlist_id", wishlist.ID, "product_id", product.ID,
		"current_price", product.CurrentPrice, "target_price", wishlist.TargetPrice)
	return nil
}

// NotifyFakeDiscount уведомляет владельцев избранного о зафиксированной
// фейковой скидке на их товар
func (s *WishlistService) NotifyFakeDiscount(ctx context.Context, product *models.Product, detection *models.FakeDiscountHistory) error {
	wishlists, err := s.repository.ListWishlistsByProduct(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to list wishlists by product: %w", err)
	}

	title := fmt.Sprintf("%s: обнаружена фейковая скидка", product.Name)
	message := fmt.Sprintf("Заявленная скидка %d%%, реальная %d%%",
		detection.FakeDiscountRate, detection.RealDiscountRate)

	for _, wishlist := range wishlists {
		if !wishlist.NotificationEnabled {
			continue
		}
		if enabled, err := s.userNotificationsEnabled(ctx, wishlist.UserID); err != nil || !enabled {
			if err != nil {
				s.logger.WarnWithContext(ctx, "не удалось проверить настройки пользователя",
					"user_id", wishlist.UserID, "error", err)
			}
			continue
		}

		notification := models.NewNotification(wishlist.UserID, product.ID,
			models.NotificationTypeFakeDiscount, title, message)
		if err := s.repository.SaveNotification(ctx, notification); err != nil {
			s.logger.ErrorWithContext(ctx, "не удалось сохранить уведомление",
				"user_id", wishlist.UserID, "error", err)
			continue
		}
		if err := s.notifier.Notify(ctx, wishlist.UserID, product.ID,
			string(models.NotificationTypeFakeDiscount), title, message); err != nil {
			s.logger.ErrorWithContext(ctx, "не удалось доставить уведомление",
				"user_id", wishlist.UserID, "error", err)
		}
	}
	return nil
}

func (s *WishlistService) userNotificationsEnabled(ctx context.Context, userID string) (bool, error) {
	user, err := s.repository.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return false, nil
	}
	return user.NotificationEnabled, nil
}

func targetReachedKey(wishlistID string) string {
	return "wishlist:target-reached:" + wishlistID
}
