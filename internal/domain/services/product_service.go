package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/athebyme/pricewatch-service/internal/adapters/storage"
	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/pkg/errors"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
)

const productCacheTTL = 5 * time.Minute

// ProductService предоставляет чтение товаров, их истории и статистики
type ProductService struct {
	repository postgres.Port
	cache      interfaces.CachePort
	logger     interfaces.LoggerPort
}

// NewProductService создает новый экземпляр ProductService
func NewProductService(repository postgres.Port, cache interfaces.CachePort, logger interfaces.LoggerPort) *ProductService {
	return &ProductService{
		repository: repository,
		cache:      cache,
		logger:     logger,
	}
}

// GetProduct возвращает товар по ID, с кэшированием
func (s *ProductService) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	cacheKey := productCacheKey(productID)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var product models.Product
		if err := json.Unmarshal(cached, &product); err == nil {
			return &product, nil
		}
	}

	product, err := s.repository.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, errors.ErrNotFound
	}

	if payload, err := json.Marshal(product); err == nil {
		if err := s.cache.Set(ctx, cacheKey, payload, productCacheTTL); err != nil {
			s.logger.WarnWithContext(ctx, "не удалось закэшировать товар",
				"product_id", productID, "error", err)
		}
	}
	return product, nil
}

// ListProducts возвращает страницу товаров магазина
func (s *ProductService) ListProducts(ctx context.Context, shopType models.ShopType, page, pageSize int) ([]*models.Product, int, error) {
	return s.repository.ListProducts(ctx, shopType, page, pageSize)
}

// ListFakeDiscounts возвращает страницу товаров, помеченных детектором
func (s *ProductService) ListFakeDiscounts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {
	return s.repository.ListFakeDiscountProducts(ctx, page, pageSize)
}

// GetDetail возвращает агрегированную статистику цен товара
func (s *ProductService) GetDetail(ctx context.Context, productID string) (*models.ProductDetail, error) {
	detail, err := s.repository.GetProductDetail(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product detail: %w", err)
	}
	if detail == nil {
		return nil, errors.ErrNotFound
	}
	return detail, nil
}

// GetPriceHistory возвращает историю цен товара за последние days дней
func (s *ProductService) GetPriceHistory(ctx context.Context, productID string, days int) ([]*models.ProductHistory, error) {
	if days <= 0 {
		days = 90
	}
	now := time.Now().UTC()
	history, err := s.repository.GetHistoryRange(ctx, productID, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return history, nil
}

// CreateCategory создает категорию; пустой parentID означает корневую.
// Родитель обязан существовать.
func (s *ProductService) CreateCategory(ctx context.Context, name, parentID string) (*models.Category, error) {
	if parentID != "" {
		tree, err := s.GetCategoryTree(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := tree.Get(parentID); !ok {
			return nil, errors.ErrNotFound
		}
	}

	category := models.NewCategory(name, parentID)
	if err := s.repository.SaveCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to save category: %w", err)
	}
	return category, nil
}

// GetCategoryTree возвращает индекс всех категорий для обхода дерева
func (s *ProductService) GetCategoryTree(ctx context.Context) (*models.CategoryTree, error) {
	categories, err := s.repository.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return models.NewCategoryTree(categories), nil
}

func productCacheKey(productID string) string {
	return "product:" + productID
}
