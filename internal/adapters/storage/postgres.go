package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
	"github.com/athebyme/pricewatch-service/pkg/tx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository определяет методы работы с товарами и их ценовой историей
type ProductRepository interface {
	SaveProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	GetProductByNumber(ctx context.Context, shopType models.ShopType, productNumber int64) (*models.Product, error)
	ListProducts(ctx context.Context, shopType models.ShopType, page, pageSize int) ([]*models.Product, int, error)
	ListFakeDiscountProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error)

	SaveProductDetail(ctx context.Context, detail *models.ProductDetail) error
	GetProductDetail(ctx context.Context, productID string) (*models.ProductDetail, error)

	SaveHistory(ctx context.Context, record *models.ProductHistory) error
	GetHistoryRange(ctx context.Context, productID string, from, to time.Time) ([]*models.ProductHistory, error)
	GetRecentHistory(ctx context.Context, productID string, limit int) ([]*models.ProductHistory, error)
	ListProductIDsWithHistoryBetween(ctx context.Context, from, to time.Time) ([]string, error)
}

// CrawlRepository определяет методы работы с заданиями обхода
type CrawlRepository interface {
	SaveCrawlJob(ctx context.Context, job *models.CrawlJob) error
	GetCrawlJob(ctx context.Context, jobID string) (*models.CrawlJob, error)
	ListCrawlJobs(ctx context.Context, shopType models.ShopType, page, pageSize int) ([]*models.CrawlJob, int, error)

	SaveCrawlRequest(ctx context.Context, request *models.UserProductCrawlRequest) error
	GetCrawlRequest(ctx context.Context, requestID string) (*models.UserProductCrawlRequest, error)
	ListPendingCrawlRequests(ctx context.Context, limit int) ([]*models.UserProductCrawlRequest, error)
	ListCrawlRequestsByUser(ctx context.Context, userID string) ([]*models.UserProductCrawlRequest, error)
}

// HolidayRepository определяет методы работы с праздниками
type HolidayRepository interface {
	SaveHoliday(ctx context.Context, holiday *models.Holiday) error
	GetHoliday(ctx context.Context, holidayID string) (*models.Holiday, error)
	ListHolidays(ctx context.Context, year int) ([]*models.Holiday, error)
	ListActiveHolidaysForDate(ctx context.Context, day time.Time) ([]*models.Holiday, error)
}

// DetectionRepository определяет методы работы с зафиксированными фейковыми скидками
type DetectionRepository interface {
	SaveDetection(ctx context.Context, detection *models.FakeDiscountHistory) error
	GetDetection(ctx context.Context, productID, holidayID string, raisedAt time.Time) (*models.FakeDiscountHistory, error)
	ListDetectionsByProduct(ctx context.Context, productID string) ([]*models.FakeDiscountHistory, error)
}

// WishlistRepository определяет методы работы с избранным и пользователями
type WishlistRepository interface {
	SaveWishlist(ctx context.Context, wishlist *models.Wishlist) error
	GetWishlist(ctx context.Context, wishlistID string) (*models.Wishlist, error)
	ListWishlistsByProduct(ctx context.Context, productID string) ([]*models.Wishlist, error)
	ListWishlistsByUser(ctx context.Context, userID string) ([]*models.Wishlist, error)
	DeleteWishlist(ctx context.Context, wishlistID string) error

	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)

	SaveNotification(ctx context.Context, notification *models.Notification) error
	ListNotificationsByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error)

	SaveCategory(ctx context.Context, category *models.Category) error
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

// Port агрегирует репозитории и управление транзакциями
type Port interface {
	ProductRepository
	CrawlRepository
	HolidayRepository
	DetectionRepository
	WishlistRepository

	interfaces.StoragePort
}

// Storage реализация Port для PostgreSQL
type Storage struct {
	pool *pgxpool.Pool
}

// NewStorage создает новое подключение к PostgreSQL
func NewStorage(ctx context.Context, connectionString string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Storage{pool: pool}, nil
}

func NewStorageWithPool(ctx context.Context, pool *pgxpool.Pool) (*Storage, error) {
	if pool == nil {
		return nil, errors.New("pool is nil")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &Storage{pool: pool}, nil
}

// Close закрывает соединение с БД
func (r *Storage) Close() error {
	r.pool.Close()
	return nil
}

type executor interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// getExecutor возвращает исполнителя запросов (транзакцию или пул)
func (r *Storage) getExecutor(ctx context.Context) executor {
	if tx := r.getTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// getTx получает транзакцию из контекста
func (r *Storage) getTx(ctx context.Context) pgx.Tx {
	txFromCtx, ok := tx.FromContext(ctx)
	if !ok {
		return nil
	}
	return txFromCtx
}

// BeginTx начинает новую транзакцию
func (r *Storage) BeginTx(ctx context.Context) (context.Context, error) {
	pgxTx, err := r.pool.Begin(ctx)
	if err != nil {
		return ctx, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx.WithTx(ctx, pgxTx), nil
}

// CommitTx фиксирует транзакцию
func (r *Storage) CommitTx(ctx context.Context) error {
	pgxTx := r.getTx(ctx)
	if pgxTx == nil {
		return errors.New("no transaction in context")
	}
	return pgxTx.Commit(ctx)
}

// RollbackTx откатывает транзакцию
func (r *Storage) RollbackTx(ctx context.Context) error {
	pgxTx := r.getTx(ctx)
	if pgxTx == nil {
		return errors.New("no transaction in context")
	}
	return pgxTx.Rollback(ctx)
}
