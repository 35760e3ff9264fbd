package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/athebyme/pricewatch-service/internal/adapters/messaging"
	"github.com/athebyme/pricewatch-service/internal/adapters/storage"
	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/internal/utils"
	"github.com/athebyme/pricewatch-service/pkg/errors"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
)

const defaultWorkerCount = 8

// CrawlService оркестрирует пакетные обходы каталогов и пользовательские
// запросы на обход отдельных товаров
type CrawlService struct {
	repository postgres.Port
	crawler    interfaces.CrawlerPort
	cache      interfaces.CachePort
	messaging  interfaces.MessagingPort
	wishlists  *WishlistService
	logger     interfaces.LoggerPort
	workers    int
}

// NewCrawlService создает новый экземпляр CrawlService.
// workers задает число параллельных воркеров обхода внутри одного задания.
func NewCrawlService(
	repository postgres.Port,
	crawler interfaces.CrawlerPort,
	cache interfaces.CachePort,
	msg interfaces.MessagingPort,
	wishlists *WishlistService,
	logger interfaces.LoggerPort,
	workers int,
) *CrawlService {
	if workers <= 0 {
		workers = defaultWorkerCount
	}
	return &CrawlService{
		repository: repository,
		crawler:    crawler,
		cache:      cache,
		messaging:  msg,
		wishlists:  wishlists,
		logger:     logger,
		workers:    workers,
	}
}

// RunCatalogScan выполняет полный обход каталога магазина.
// Ошибки отдельных товаров изолируются и учитываются в счетчиках задания;
// ошибка получения каталога проваливает задание целиком.
func (s *CrawlService) RunCatalogScan(ctx context.Context, shopType models.ShopType) (*models.CrawlJob, error) {
	if err := validateShopType(shopType); err != nil {
		return nil, err
	}

	job := models.NewCrawlJob(models.CrawlJobTypeFullScan, shopType)
	if err := s.repository.SaveCrawlJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save crawl job: %w", err)
	}

	if err := job.Start(); err != nil {
		return nil, err
	}
	if err := s.repository.SaveCrawlJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save crawl job: %w", err)
	}

	s.logger.InfoWithContext(ctx, "обход каталога запущен",
		"job_id", job.ID, "shop_type", job.ShopType)

	items, err := s.crawler.FetchCatalog(ctx, string(shopType))
	if err != nil {
		s.failJob(ctx, job, fmt.Sprintf("catalog fetch failed: %v", err))
		return job, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	if err := job.SetTotalCount(len(items)); err != nil {
		return job, err
	}
	if err := s.repository.SaveCrawlJob(ctx, job); err != nil {
		return job, fmt.Errorf("failed to save crawl job: %w", err)
	}

	s.dispatchItems(ctx, job, shopType, items)

	if err := job.Complete(); err != nil {
		return job, err
	}
	if err := s.repository.SaveCrawlJob(ctx, job); err != nil {
		return job, fmt.Errorf("failed to save crawl job: %w", err)
	}
	s.publishJobCompleted(ctx, job)

	total, success, fail := job.Counts()
	s.logger.InfoWithContext(ctx, "обход каталога завершен",
		"job_id", job.ID, "total", total, "success", success, "fail", fail)
	return job, nil
}

// dispatchItems раздает элементы каталога пулу воркеров.
// Каждый воркер отчитывается в общие счетчики задания.
func (s *CrawlService) dispatchItems(ctx context.Context, job *models.CrawlJob, shopType models.ShopType, items []interfaces.CrawlItem) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)

	for _, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(item interfaces.CrawlItem) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.processItem(ctx, shopType, item); err != nil {
				s.logger.WarnWithContext(ctx, "обход товара не удался",
					"job_id", job.ID, "product_number", item.ProductNumber, "error", err)
				if recErr := job.RecordItemFailure(); recErr != nil {
					s.logger.ErrorWithContext(ctx, "не удалось учесть сбой элемента",
						"job_id", job.ID, "error", recErr)
				}
				return
			}
			if recErr := job.RecordItemSuccess(); recErr != nil {
				s.logger.ErrorWithContext(ctx, "не удалось учесть успех элемента",
					"job_id", job.ID, "error", recErr)
			}
		}(item)
	}
	wg.Wait()
}

// processItem обходит один товар и сохраняет его снимок
func (s *CrawlService) processItem(ctx context.Context, shopType models.ShopType, item interfaces.CrawlItem) error {
	snapshot, err := s.crawler.FetchProduct(ctx, string(shopType), item)
	if err != nil {
		return fmt.Errorf("failed to fetch product: %w", err)
	}
	_, err = s.persistSnapshot(ctx, shopType, snapshot)
	return err
}

// persistSnapshot применяет снимок товара: обновляет товар, дописывает историю,
// пересчитывает статистику и ценовую метку. Все записи идут одной транзакцией.
func (s *CrawlService) persistSnapshot(ctx context.Context, shopType models.ShopType, snapshot *interfaces.ProductSnapshot) (*models.Product, error) {
	now := time.Now().UTC()

	txCtx, err := s.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	product, err := s.repository.GetProductByNumber(txCtx, shopType, snapshot.ProductNumber)
	if err != nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	var oldPrice int
	if product == nil {
		product = models.NewProduct(snapshot.ProductNumber, snapshot.Name, shopType)
	} else {
		oldPrice = product.CurrentPrice
	}

	product.Name = snapshot.Name
	product.Brand = snapshot.Brand
	product.ImgURL = snapshot.ImgURL
	if snapshot.CategoryID != "" {
		product.CategoryID = snapshot.CategoryID
	}
	product.UpdatePrice(snapshot.CurrentPrice, snapshot.OriginalPrice, snapshot.DiscountRate)
	product.UpdateReviewInfo(snapshot.StarScore, snapshot.ReviewCount)
	product.UpdateLikeCount(snapshot.LikeCount)

	if err := s.repository.SaveProduct(txCtx, product); err != nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	record := models.NewProductHistory(product.ID,
		snapshot.CurrentPrice, snapshot.OriginalPrice, snapshot.DiscountRate, now)
	if err := s.repository.SaveHistory(txCtx, record); err != nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("failed to save history: %w", err)
	}

	// Статистика считается по 90-дневной истории, включая только что записанную точку
	history, err := s.repository.GetHistoryRange(txCtx, product.ID, now.AddDate(0, 0, -90), now)
	if err != nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("failed to get history range: %w", err)
	}

	detail, err := s.repository.GetProductDetail(txCtx, product.ID)
	if err != nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("failed to get product detail: %w", err)
	}
	if detail == nil {
		detail = models.NewProductDetail(product.ID, snapshot.ProductURL)
	}
	if snapshot.ProductURL != "" {
		detail.ProductURL = snapshot.ProductURL
	}
	detail.RecalcStats(history, now)
	detail.LastCrawledAt = &now
	if err := s.repository.SaveProductDetail(txCtx, detail); err != nil {
		s.repository.RollbackTx(txCtx)
		return nil, fmt.Errorf("failed to save product detail: %w", err)
	}

	product.UpdatePriceLabel(models.ClassifyPriceLabel(product.CurrentPrice, detail))
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

	if oldPrice != product.CurrentPrice {
		s.publishPriceUpdated(ctx, product, oldPrice)
		if err := s.wishlists.CheckTargetPrice(ctx, product); err != nil {
			s.logger.ErrorWithContext(ctx, "проверка целевых цен не удалась",
				"product_id", product.ID, "error", err)
		}
	}
	return product, nil
}

// SubmitUserRequest принимает пользовательский запрос на обход товара по ссылке.
// Запрос ставится в очередь и обрабатывается асинхронно.
func (s *CrawlService) SubmitUserRequest(ctx context.Context, userID, productURL string, shopType models.ShopType) (*models.UserProductCrawlRequest, error) {
	if err := validateShopType(shopType); err != nil {
		return nil, err
	}
	if strings.TrimSpace(productURL) == "" {
		return nil, utils.ErrInvalidProductURL
	}

	request := models.NewUserProductCrawlRequest(userID, productURL, shopType)
	if err := s.repository.SaveCrawlRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to save crawl request: %w", err)
	}

	s.logger.InfoWithContext(ctx, "запрос на обход принят",
		"request_id", request.ID, "user_id", userID, "shop_type", shopType)
	return request, nil
}

// ProcessUserRequest обрабатывает один пользовательский запрос.
// Ошибка обхода фиксируется в самом запросе и пользователю видна напрямую.
func (s *CrawlService) ProcessUserRequest(ctx context.Context, request *models.UserProductCrawlRequest) error {
	if err := request.StartProcessing(); err != nil {
		return err
	}
	if err := s.repository.SaveCrawlRequest(ctx, request); err != nil {
		return fmt.Errorf("failed to save crawl request: %w", err)
	}

	snapshot, err := s.crawler.FetchByURL(ctx, string(request.ShopType), request.ProductURL)
	if err != nil {
		if failErr := request.Fail(err.Error()); failErr != nil {
			return failErr
		}
		if saveErr := s.repository.SaveCrawlRequest(ctx, request); saveErr != nil {
			return fmt.Errorf("failed to save crawl request: %w", saveErr)
		}
		s.logger.WarnWithContext(ctx, "пользовательский обход не удался",
			"request_id", request.ID, "error", err)
		return nil
	}
	if snapshot.ProductURL == "" {
		snapshot.ProductURL = request.ProductURL
	}

	product, err := s.persistSnapshot(ctx, request.ShopType, snapshot)
	if err != nil {
		if failErr := request.Fail(err.Error()); failErr != nil {
			return failErr
		}
		if saveErr := s.repository.SaveCrawlRequest(ctx, request); saveErr != nil {
			return fmt.Errorf("failed to save crawl request: %w", saveErr)
		}
		return nil
	}

	if err := request.Complete(product.ID); err != nil {
		return err
	}
	if err := s.repository.SaveCrawlRequest(ctx, request); err != nil {
		return fmt.Errorf("failed to save crawl request: %w", err)
	}

	s.logger.InfoWithContext(ctx, "пользовательский обход завершен",
		"request_id", request.ID, "product_id", product.ID)
	return nil
}

// ProcessPendingRequests обрабатывает накопившиеся пользовательские запросы
func (s *CrawlService) ProcessPendingRequests(ctx context.Context, limit int) error {
	requests, err := s.repository.ListPendingCrawlRequests(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list pending crawl requests: %w", err)
	}

	for _, request := range requests {
		if err := s.ProcessUserRequest(ctx, request); err != nil {
			s.logger.ErrorWithContext(ctx, "обработка запроса не удалась",
				"request_id", request.ID, "error", err)
		}
	}
	return nil
}

// GetJob возвращает задание обхода по ID
func (s *CrawlService) GetJob(ctx context.Context, jobID string) (*models.CrawlJob, error) {
	job, err := s.repository.GetCrawlJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl job: %w", err)
	}
	if job == nil {
		return nil, errors.ErrNotFound
	}
	return job, nil
}

// ListJobs возвращает страницу заданий магазина
func (s *CrawlService) ListJobs(ctx context.Context, shopType models.ShopType, page, pageSize int) ([]*models.CrawlJob, int, error) {
	return s.repository.ListCrawlJobs(ctx, shopType, page, pageSize)
}

// GetRequest возвращает пользовательский запрос по ID
func (s *CrawlService) GetRequest(ctx context.Context, requestID string) (*models.UserProductCrawlRequest, error) {
	request, err := s.repository.GetCrawlRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl request: %w", err)
	}
	if request == nil {
		return nil, errors.ErrNotFound
	}
	return request, nil
}

// ListRequestsByUser возвращает запросы пользователя
func (s *CrawlService) ListRequestsByUser(ctx context.Context, userID string) ([]*models.UserProductCrawlRequest, error) {
	return s.repository.ListCrawlRequestsByUser(ctx, userID)
}

func (s *CrawlService) failJob(ctx context.Context, job *models.CrawlJob, message string) {
	if err := job.Fail(message); err != nil {
		s.logger.ErrorWithContext(ctx, "не удалось провалить задание",
			"job_id", job.ID, "error", err)
		return
	}
	if err := s.repository.SaveCrawlJob(ctx, job); err != nil {
		s.logger.ErrorWithContext(ctx, "не удалось сохранить задание",
			"job_id", job.ID, "error", err)
	}
	s.publishJobCompleted(ctx, job)
}

func (s *CrawlService) publishJobCompleted(ctx context.Context, job *models.CrawlJob) {
	total, success, fail := job.Counts()
	event := messaging.JobCompletedEvent{
		Event:        messaging.NewEvent(messaging.EventJobCompleted),
		JobID:        job.ID,
		ShopType:     string(job.ShopType),
		Status:       string(job.CurrentStatus()),
		TotalCount:   total,
		SuccessCount: success,
		FailCount:    fail,
		ErrorMessage: job.ErrorMessage,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "не удалось сериализовать событие задания",
			"job_id", job.ID, "error", err)
		return
	}
	if err := s.messaging.Publish(ctx, messaging.TopicCrawlEvents, payload); err != nil {
		s.logger.ErrorWithContext(ctx, "не удалось опубликовать событие задания",
			"job_id", job.ID, "error", err)
	}
}

func (s *CrawlService) publishPriceUpdated(ctx context.Context, product *models.Product, oldPrice int) {
	event := messaging.PriceUpdatedEvent{
		Event:         messaging.NewEvent(messaging.EventPriceUpdated),
		ProductID:     product.ID,
		ProductNumber: product.ProductNumber,
		ShopType:      string(product.ShopType),
		OldPrice:      oldPrice,
		NewPrice:      product.CurrentPrice,
		PriceLabel:    string(product.PriceLabel),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "не удалось сериализовать событие цены",
			"product_id", product.ID, "error", err)
		return
	}
	if err := s.messaging.Publish(ctx, messaging.TopicPriceEvents, payload); err != nil {
		s.logger.ErrorWithContext(ctx, "не удалось опубликовать событие цены",
			"product_id", product.ID, "error", err)
	}
}

func validateShopType(shopType models.ShopType) error {
	switch shopType {
	case models.ShopTypeMusinsa, models.ShopTypeWConcept, models.ShopTypeEQL:
		return nil
	default:
		return utils.ErrInvalidShopType
	}
}
