package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/pkg/errors"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
)

// fakeStorage потокобезопасная реализация postgres.Port в памяти
type fakeStorage struct {
	mu sync.Mutex

	products   map[string]*models.Product
	details    map[string]*models.ProductDetail
	history    map[string][]*models.ProductHistory // product_id -> записи
	jobs       map[string]*models.CrawlJob
	requests   map[string]*models.UserProductCrawlRequest
	holidays   map[string]*models.Holiday
	detections map[string]*models.FakeDiscountHistory // естественный ключ -> запись
	wishlists  map[string]*models.Wishlist
	users      map[string]*models.User
	notifs     []*models.Notification
	categories map[string]*models.Category
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		products:   make(map[string]*models.Product),
		details:    make(map[string]*models.ProductDetail),
		history:    make(map[string][]*models.ProductHistory),
		jobs:       make(map[string]*models.CrawlJob),
		requests:   make(map[string]*models.UserProductCrawlRequest),
		holidays:   make(map[string]*models.Holiday),
		detections: make(map[string]*models.FakeDiscountHistory),
		wishlists:  make(map[string]*models.Wishlist),
		users:      make(map[string]*models.User),
		categories: make(map[string]*models.Category),
	}
}

func detectionKey(productID, holidayID string, raisedAt time.Time) string {
	return productID + "|" + holidayID + "|" + models.DateOnly(raisedAt).Format("2006-01-02")
}

func (f *fakeStorage) SaveProduct(_ context.Context, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Дедупликация по (магазин, номер), как в реальном хранилище
	for _, existing := range f.products {
		if existing.ShopType == product.ShopType && existing.ProductNumber == product.ProductNumber {
			product.ID = existing.ID
			break
		}
	}
	if product.ID == "" {
		product.ID = "prod-" + strconv.Itoa(len(f.products)+1)
	}
	copied := *product
	f.products[product.ID] = &copied
	return nil
}

func (f *fakeStorage) GetProduct(_ context.Context, productID string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[productID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStorage) GetProductByNumber(_ context.Context, shopType models.ShopType, productNumber int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ShopType == shopType && p.ProductNumber == productNumber {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStorage) ListProducts(_ context.Context, shopType models.ShopType, page, pageSize int) ([]*models.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Product
	for _, p := range f.products {
		if p.ShopType == shopType {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (f *fakeStorage) ListFakeDiscountProducts(_ context.Context, page, pageSize int) ([]*models.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Product
	for _, p := range f.products {
		if p.IsFakeDiscount {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (f *fakeStorage) SaveProductDetail(_ context.Context, detail *models.ProductDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *detail
	f.details[detail.ProductID] = &copied
	return nil
}

func (f *fakeStorage) GetProductDetail(_ context.Context, productID string) (*models.ProductDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.details[productID]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStorage) SaveHistory(_ context.Context, record *models.ProductHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.Date = models.DateOnly(record.Date)
	records := f.history[record.ProductID]
	for i, r := range records {
		if r.Date.Equal(record.Date) {
			copied := *record
			records[i] = &copied
			return nil
		}
	}
	copied := *record
	f.history[record.ProductID] = append(records, &copied)
	return nil
}

func (f *fakeStorage) GetHistoryRange(_ context.Context, productID string, from, to time.Time) ([]*models.ProductHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fromD, toD := models.DateOnly(from), models.DateOnly(to)
	var out []*models.ProductHistory
	for _, r := range f.history[productID] {
		if !r.Date.Before(fromD) && !r.Date.After(toD) {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeStorage) GetRecentHistory(_ context.Context, productID string, limit int) ([]*models.ProductHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := append([]*models.ProductHistory(nil), f.history[productID]...)
	sort.Slice(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (f *fakeStorage) ListProductIDsWithHistoryBetween(_ context.Context, from, to time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fromD, toD := models.DateOnly(from), models.DateOnly(to)
	var ids []string
	for productID, records := range f.history {
		for _, r := range records {
			if !r.Date.Before(fromD) && !r.Date.After(toD) {
				ids = append(ids, productID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStorage) SaveCrawlJob(_ context.Context, job *models.CrawlJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStorage) GetCrawlJob(_ context.Context, jobID string) (*models.CrawlJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[jobID], nil
}

func (f *fakeStorage) ListCrawlJobs(_ context.Context, shopType models.ShopType, page, pageSize int) ([]*models.CrawlJob, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CrawlJob
	for _, j := range f.jobs {
		if j.ShopType == shopType {
			out = append(out, j)
		}
	}
	return out, len(out), nil
}

func (f *fakeStorage) SaveCrawlRequest(_ context.Context, request *models.UserProductCrawlRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *request
	f.requests[request.ID] = &copied
	return nil
}

func (f *fakeStorage) GetCrawlRequest(_ context.Context, requestID string) (*models.UserProductCrawlRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.requests[requestID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStorage) ListPendingCrawlRequests(_ context.Context, limit int) ([]*models.UserProductCrawlRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.UserProductCrawlRequest
	for _, r := range f.requests {
		if r.Status == models.RequestStatusPending {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStorage) ListCrawlRequestsByUser(_ context.Context, userID string) ([]*models.UserProductCrawlRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.UserProductCrawlRequest
	for _, r := range f.requests {
		if r.UserID == userID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStorage) SaveHoliday(_ context.Context, holiday *models.Holiday) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *holiday
	f.holidays[holiday.ID] = &copied
	return nil
}

func (f *fakeStorage) GetHoliday(_ context.Context, holidayID string) (*models.Holiday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h, ok := f.holidays[holidayID]; ok {
		copied := *h
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStorage) ListHolidays(_ context.Context, year int) ([]*models.Holiday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Holiday
	for _, h := range f.holidays {
		if year <= 0 || h.Year == year {
			copied := *h
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStorage) ListActiveHolidaysForDate(_ context.Context, day time.Time) ([]*models.Holiday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Holiday
	for _, h := range f.holidays {
		if h.IsActive && h.IsInMonitoringPeriod(day) {
			copied := *h
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStorage) SaveDetection(_ context.Context, detection *models.FakeDiscountHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *detection
	f.detections[detectionKey(detection.ProductID, detection.HolidayID, detection.RaisedAt)] = &copied
	return nil
}

func (f *fakeStorage) GetDetection(_ context.Context, productID, holidayID string, raisedAt time.Time) (*models.FakeDiscountHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.detections[detectionKey(productID, holidayID, raisedAt)]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStorage) ListDetectionsByProduct(_ context.Context, productID string) ([]*models.FakeDiscountHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.FakeDiscountHistory
	for _, d := range f.detections {
		if d.ProductID == productID {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStorage) SaveWishlist(_ context.Context, wishlist *models.Wishlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.wishlists {
		if existing.UserID == wishlist.UserID && existing.ProductID == wishlist.ProductID {
			wishlist.ID = existing.ID
			break
		}
	}
	if wishlist.ID == "" {
		wishlist.ID = "wish-" + strconv.Itoa(len(f.wishlists)+1)
	}
	copied := *wishlist
	f.wishlists[wishlist.ID] = &copied
	return nil
}

func (f *fakeStorage) GetWishlist(_ context.Context, wishlistID string) (*models.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.wishlists[wishlistID]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStorage) ListWishlistsByProduct(_ context.Context, productID string) ([]*models.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Wishlist
	for _, w := range f.wishlists {
		if w.ProductID == productID {
			copied := *w
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStorage) ListWishlistsByUser(_ context.Context, userID string) ([]*models.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Wishlist
	for _, w := range f.wishlists {
		if w.UserID == userID {
			copied := *w
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStorage) DeleteWishlist(_ context.Context, wishlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.wishlists, wishlistID)
	return nil
}

func (f *fakeStorage) SaveUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = "user-" + strconv.Itoa(len(f.users)+1)
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeStorage) GetUser(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStorage) SaveNotification(_ context.Context, notification *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *notification
	f.notifs = append(f.notifs, &copied)
	return nil
}

func (f *fakeStorage) ListNotificationsByUser(_ context.Context, userID string, limit int) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.notifs {
		if n.UserID == userID {
			copied := *n
			out = append(out, &copied)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStorage) SaveCategory(_ context.Context, category *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *category
	f.categories[category.ID] = &copied
	return nil
}

func (f *fakeStorage) ListCategories(_ context.Context) ([]*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Category
	for _, c := range f.categories {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeStorage) BeginTx(ctx context.Context) (context.Context, error) { return ctx, nil }
func (f *fakeStorage) CommitTx(context.Context) error                       { return nil }
func (f *fakeStorage) RollbackTx(context.Context) error                     { return nil }
func (f *fakeStorage) Close() error                                         { return nil }

func (f *fakeStorage) notificationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notifs)
}

func (f *fakeStorage) detectionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detections)
}

// fakeCache реализация CachePort в памяти
type fakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
	locks map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		items: make(map[string][]byte),
		locks: make(map[string]bool),
	}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items[key]; ok {
		return v, nil
	}
	return nil, errors.ErrCacheMiss
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *fakeCache) DeleteByPattern(context.Context, string) error { return nil }

func (c *fakeCache) Increment(_ context.Context, key string, delta int64) (int64, error) {
	return delta, nil
}

func (c *fakeCache) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] {
		return false, nil
	}
	c.locks[key] = true
	return true, nil
}

func (c *fakeCache) Unlock(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, key)
	return nil
}

func (c *fakeCache) Close() error { return nil }

// fakeMessaging собирает опубликованные сообщения по топикам
type fakeMessaging struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newFakeMessaging() *fakeMessaging {
	return &fakeMessaging{published: make(map[string][][]byte)}
}

func (m *fakeMessaging) Publish(_ context.Context, topic string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[topic] = append(m.published[topic], message)
	return nil
}

func (m *fakeMessaging) Subscribe(context.Context, string, interfaces.MessageHandler) (func() error, error) {
	return func() error { return nil }, nil
}

func (m *fakeMessaging) Close() error { return nil }

func (m *fakeMessaging) count(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published[topic])
}

// fakeNotifier собирает отправленные уведомления
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

type sentNotification struct {
	UserID    string
	ProductID string
	Kind      string
}

func (n *fakeNotifier) Notify(_ context.Context, userID, productID, kind, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, ProductID: productID, Kind: kind})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// fakeCrawler программируемый CrawlerPort
type fakeCrawler struct {
	catalog    []interfaces.CrawlItem
	catalogErr error
	snapshots  map[int64]*interfaces.ProductSnapshot
	failNums   map[int64]error
	byURL      map[string]*interfaces.ProductSnapshot
	byURLErr   error
}

func newFakeCrawler() *fakeCrawler {
	return &fakeCrawler{
		snapshots: make(map[int64]*interfaces.ProductSnapshot),
		failNums:  make(map[int64]error),
		byURL:     make(map[string]*interfaces.ProductSnapshot),
	}
}

func (c *fakeCrawler) FetchCatalog(context.Context, string) ([]interfaces.CrawlItem, error) {
	if c.catalogErr != nil {
		return nil, c.catalogErr
	}
	return c.catalog, nil
}

func (c *fakeCrawler) FetchProduct(_ context.Context, _ string, item interfaces.CrawlItem) (*interfaces.ProductSnapshot, error) {
	if err, ok := c.failNums[item.ProductNumber]; ok {
		return nil, err
	}
	if snapshot, ok := c.snapshots[item.ProductNumber]; ok {
		return snapshot, nil
	}
	return nil, errors.ErrNotFound
}

func (c *fakeCrawler) FetchByURL(_ context.Context, _ string, productURL string) (*interfaces.ProductSnapshot, error) {
	if c.byURLErr != nil {
		return nil, c.byURLErr
	}
	if snapshot, ok := c.byURL[productURL]; ok {
		return snapshot, nil
	}
	return nil, errors.ErrNotFound
}

// noopLogger глушит логи в тестах
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})                           {}
func (noopLogger) Info(string, ...interface{})                            {}
func (noopLogger) Warn(string, ...interface{})                            {}
func (noopLogger) Error(string, ...interface{})                           {}
func (noopLogger) Fatal(string, ...interface{})                           {}
func (noopLogger) DebugWithContext(context.Context, string, ...interface{}) {}
func (noopLogger) InfoWithContext(context.Context, string, ...interface{})  {}
func (noopLogger) WarnWithContext(context.Context, string, ...interface{})  {}
func (noopLogger) ErrorWithContext(context.Context, string, ...interface{}) {}
func (l noopLogger) WithFields(...interfaces.LogField) interfaces.LoggerPort { return l }
func (l noopLogger) WithField(string, interface{}) interfaces.LoggerPort     { return l }
func (noopLogger) Sync() error                                               { return nil }
