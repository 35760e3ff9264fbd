package services

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"testing"

	"github.com/athebyme/pricewatch-service/internal/adapters/messaging"
	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/internal/utils"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
)

type crawlFixture struct {
	storage   *fakeStorage
	cache     *fakeCache
	messaging *fakeMessaging
	notifier  *fakeNotifier
	crawler   *fakeCrawler
	service   *CrawlService
}

func newCrawlFixture() *crawlFixture {
	storage := newFakeStorage()
	cache := newFakeCache()
	msg := newFakeMessaging()
	notifier := &fakeNotifier{}
	crawler := newFakeCrawler()
	wishlists := NewWishlistService(storage, cache, notifier, noopLogger{})
	service := NewCrawlService(storage, crawler, cache, msg, wishlists, noopLogger{}, 4)
	return &crawlFixture{
		storage:   storage,
		cache:     cache,
		messaging: msg,
		notifier:  notifier,
		crawler:   crawler,
		service:   service,
	}
}

func snapshot(number int64, price int) *interfaces.ProductSnapshot {
	return &interfaces.ProductSnapshot{
		ProductNumber: number,
		Name:          "상품 " + strconv.FormatInt(number, 10),
		ProductURL:    "https://shop.example.com/goods/" + strconv.FormatInt(number, 10),
		CurrentPrice:  price,
		OriginalPrice: price,
	}
}

func TestRunCatalogScanIsolatesItemFailures(t *testing.T) {
	f := newCrawlFixture()
	ctx := context.Background()

	f.crawler.catalog = []interfaces.CrawlItem{
		{ProductNumber: 1}, {ProductNumber: 2}, {ProductNumber: 3},
	}
	f.crawler.snapshots[1] = snapshot(1, 35000)
	f.crawler.snapshots[3] = snapshot(3, 72000)
	f.crawler.failNums[2] = stderrors.New("page parse error")

	job, err := f.service.RunCatalogScan(ctx, models.ShopTypeMusinsa)
	if err != nil {
		t.Fatalf("RunCatalogScan: %v", err)
	}

	if got := job.CurrentStatus(); got != models.JobStatusSuccess {
		t.Errorf("job status = %q, want %q", got, models.JobStatusSuccess)
	}
	total, success, fail := job.Counts()
	if total != 3 || success != 2 || fail != 1 {
		t.Errorf("counts = (%d, %d, %d), want (3, 2, 1)", total, success, fail)
	}

	// Успешные товары сохранены вместе с историей и статистикой
	product, err := f.storage.GetProductByNumber(ctx, models.ShopTypeMusinsa, 1)
	if err != nil {
		t.Fatalf("GetProductByNumber: %v", err)
	}
	if product == nil {
		t.Fatal("product 1 was not persisted")
	}
	if product.CurrentPrice != 35000 {
		t.Errorf("CurrentPrice = %d, want 35000", product.CurrentPrice)
	}
	detail, err := f.storage.GetProductDetail(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProductDetail: %v", err)
	}
	if detail == nil {
		t.Fatal("product detail was not persisted")
	}
	if detail.LastCrawledAt == nil {
		t.Error("LastCrawledAt was not set")
	}

	if got := f.messaging.count(messaging.TopicCrawlEvents); got != 1 {
		t.Errorf("published %d crawl events, want 1", got)
	}
}

func TestRunCatalogScanFailsJobOnCatalogError(t *testing.T) {
	f := newCrawlFixture()
	ctx := context.Background()
	f.crawler.catalogErr = stderrors.New("shop is down")

	job, err := f.service.RunCatalogScan(ctx, models.ShopTypeEQL)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if job == nil {
		t.Fatal("expected the failed job to be returned")
	}
	if got := job.CurrentStatus(); got != models.JobStatusFailed {
		t.Errorf("job status = %q, want %q", got, models.JobStatusFailed)
	}
	if !strings.Contains(job.ErrorMessage, "shop is down") {
		t.Errorf("ErrorMessage = %q, want it to mention the cause", job.ErrorMessage)
	}
	// Событие завершения публикуется и для проваленных заданий
	if got := f.messaging.count(messaging.TopicCrawlEvents); got != 1 {
		t.Errorf("published %d crawl events, want 1", got)
	}
}

func TestRunCatalogScanRejectsUnknownShop(t *testing.T) {
	f := newCrawlFixture()

	_, err := f.service.RunCatalogScan(context.Background(), models.ShopType("ALIEXPRESS"))
	if !stderrors.Is(err, utils.ErrInvalidShopType) {
		t.Fatalf("err = %v, want ErrInvalidShopType", err)
	}
}

func TestCatalogScanPublishesPriceChange(t *testing.T) {
	f := newCrawlFixture()
	ctx := context.Background()

	f.crawler.catalog = []interfaces.CrawlItem{{ProductNumber: 7}}
	f.crawler.snapshots[7] = snapshot(7, 50000)
	if _, err := f.service.RunCatalogScan(ctx, models.ShopTypeMusinsa); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	// Первый обход: цена изменилась с нуля
	if got := f.messaging.count(messaging.TopicPriceEvents); got != 1 {
		t.Fatalf("price events after first scan = %d, want 1", got)
	}

	// Повторный обход с той же ценой события не порождает
	if _, err := f.service.RunCatalogScan(ctx, models.ShopTypeMusinsa); err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if got := f.messaging.count(messaging.TopicPriceEvents); got != 1 {
		t.Fatalf("price events after identical scan = %d, want 1", got)
	}

	f.crawler.snapshots[7] = snapshot(7, 42000)
	if _, err := f.service.RunCatalogScan(ctx, models.ShopTypeMusinsa); err != nil {
		t.Fatalf("third scan: %v", err)
	}
	if got := f.messaging.count(messaging.TopicPriceEvents); got != 2 {
		t.Fatalf("price events after price drop = %d, want 2", got)
	}
}

func TestCatalogScanAssignsSnapshotCategory(t *testing.T) {
	f := newCrawlFixture()
	ctx := context.Background()

	f.crawler.catalog = []interfaces.CrawlItem{{ProductNumber: 9}}
	withCategory := snapshot(9, 30000)
	withCategory.CategoryID = "cat-outer"
	f.crawler.snapshots[9] = withCategory

	if _, err := f.service.RunCatalogScan(ctx, models.ShopTypeMusinsa); err != nil {
		t.Fatalf("RunCatalogScan: %v", err)
	}
	product, err := f.storage.GetProductByNumber(ctx, models.ShopTypeMusinsa, 9)
	if err != nil {
		t.Fatalf("GetProductByNumber: %v", err)
	}
	if product.CategoryID != "cat-outer" {
		t.Errorf("CategoryID = %q, want %q", product.CategoryID, "cat-outer")
	}

	// Снимок без категории не затирает назначенную
	f.crawler.snapshots[9] = snapshot(9, 30000)
	if _, err := f.service.RunCatalogScan(ctx, models.ShopTypeMusinsa); err != nil {
		t.Fatalf("second scan: %v", err)
	}
	product, err = f.storage.GetProductByNumber(ctx, models.ShopTypeMusinsa, 9)
	if err != nil {
		t.Fatalf("GetProductByNumber: %v", err)
	}
	if product.CategoryID != "cat-outer" {
		t.Errorf("CategoryID after empty snapshot = %q, want %q", product.CategoryID, "cat-outer")
	}
}

func TestCatalogScanDropsCachedProduct(t *testing.T) {
	f := newCrawlFixture()
	products := NewProductService(f.storage, f.cache, noopLogger{})
	ctx := context.Background()

	f.crawler.catalog = []interfaces.CrawlItem{{ProductNumber: 11}}
	f.crawler.snapshots[11] = snapshot(11, 50000)
	if _, err := f.service.RunCatalogScan(ctx, models.ShopTypeMusinsa); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	stored, err := f.storage.GetProductByNumber(ctx, models.ShopTypeMusinsa, 11)
	if err != nil {
		t.Fatalf("GetProductByNumber: %v", err)
	}

	// Чтение через API кэширует товар
	if _, err := products.GetProduct(ctx, stored.ID); err != nil {
		t.Fatalf("GetProduct: %v", err)
	}

	f.crawler.snapshots[11] = snapshot(11, 42000)
	if _, err := f.service.RunCatalogScan(ctx, models.ShopTypeMusinsa); err != nil {
		t.Fatalf("second scan: %v", err)
	}

	// Обход сбросил кэш: API видит новую цену сразу
	fresh, err := products.GetProduct(ctx, stored.ID)
	if err != nil {
		t.Fatalf("GetProduct after rescan: %v", err)
	}
	if fresh.CurrentPrice != 42000 {
		t.Errorf("CurrentPrice = %d, want 42000", fresh.CurrentPrice)
	}
}

func TestSubmitUserRequestValidation(t *testing.T) {
	f := newCrawlFixture()
	ctx := context.Background()

	if _, err := f.service.SubmitUserRequest(ctx, "user-1", "  ", models.ShopTypeMusinsa); !stderrors.Is(err, utils.ErrInvalidProductURL) {
		t.Errorf("blank URL: err = %v, want ErrInvalidProductURL", err)
	}
	if _, err := f.service.SubmitUserRequest(ctx, "user-1", "https://x", models.ShopType("NOPE")); !stderrors.Is(err, utils.ErrInvalidShopType) {
		t.Errorf("bad shop: err = %v, want ErrInvalidShopType", err)
	}
}

func TestProcessPendingRequestsCompletesRequest(t *testing.T) {
	f := newCrawlFixture()
	ctx := context.Background()

	url := "https://www.musinsa.com/products/4242"
	f.crawler.byURL[url] = snapshot(4242, 99000)

	request, err := f.service.SubmitUserRequest(ctx, "user-1", url, models.ShopTypeMusinsa)
	if err != nil {
		t.Fatalf("SubmitUserRequest: %v", err)
	}
	if err := f.service.ProcessPendingRequests(ctx, 10); err != nil {
		t.Fatalf("ProcessPendingRequests: %v", err)
	}

	processed, err := f.storage.GetCrawlRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetCrawlRequest: %v", err)
	}
	if processed.Status != models.RequestStatusCompleted {
		t.Fatalf("status = %q, want %q", processed.Status, models.RequestStatusCompleted)
	}
	if processed.ProductID == "" {
		t.Error("ProductID was not recorded")
	}

	product, err := f.storage.GetProduct(ctx, processed.ProductID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if product == nil || product.CurrentPrice != 99000 {
		t.Errorf("product = %+v, want persisted with price 99000", product)
	}
}

func TestProcessUserRequestRecordsFetchFailure(t *testing.T) {
	f := newCrawlFixture()
	ctx := context.Background()
	f.crawler.byURLErr = stderrors.New("404 not found")

	request, err := f.service.SubmitUserRequest(ctx, "user-1", "https://www.musinsa.com/products/777", models.ShopTypeMusinsa)
	if err != nil {
		t.Fatalf("SubmitUserRequest: %v", err)
	}
	// Ошибка обхода не пробрасывается наружу, а фиксируется в запросе
	if err := f.service.ProcessUserRequest(ctx, request); err != nil {
		t.Fatalf("ProcessUserRequest: %v", err)
	}

	failed, err := f.storage.GetCrawlRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetCrawlRequest: %v", err)
	}
	if failed.Status != models.RequestStatusFailed {
		t.Fatalf("status = %q, want %q", failed.Status, models.RequestStatusFailed)
	}
	if !strings.Contains(failed.ErrorMessage, "404") {
		t.Errorf("ErrorMessage = %q, want it to mention the cause", failed.ErrorMessage)
	}
}
