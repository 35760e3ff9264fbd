package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/athebyme/pricewatch-service/pkg/interfaces"
)

// RemoteCrawler клиент внешнего сервиса сбора данных.
// Сервис отдает уже разобранные снимки товаров, вся логика скрейпинга на его стороне.
type RemoteCrawler struct {
	baseURL string
	client  *http.Client
	logger  interfaces.LoggerPort
}

func NewRemoteCrawler(baseURL string, requestTimeout time.Duration, logger interfaces.LoggerPort) *RemoteCrawler {
	return &RemoteCrawler{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// FetchCatalog возвращает список единиц работы для полного обхода магазина
func (c *RemoteCrawler) FetchCatalog(ctx context.Context, shopType string) ([]interfaces.CrawlItem, error) {
	endpoint := fmt.Sprintf("%s/api/v1/catalog?shop=%s", c.baseURL, url.QueryEscape(shopType))

	var items []interfaces.CrawlItem
	if err := c.getJSON(ctx, endpoint, &items); err != nil {
		return nil, fmt.Errorf("failed to fetch catalog for shop %s: %w", shopType, err)
	}
	return items, nil
}

// FetchProduct загружает и разбирает снимок одного товара
func (c *RemoteCrawler) FetchProduct(ctx context.Context, shopType string, item interfaces.CrawlItem) (*interfaces.ProductSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%d?shop=%s",
		c.baseURL, item.ProductNumber, url.QueryEscape(shopType))

	var snapshot interfaces.ProductSnapshot
	if err := c.getJSON(ctx, endpoint, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to fetch product %d: %w", item.ProductNumber, err)
	}
	return &snapshot, nil
}

// FetchByURL загружает и разбирает снимок товара по пользовательской ссылке
func (c *RemoteCrawler) FetchByURL(ctx context.Context, shopType string, productURL string) (*interfaces.ProductSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/by-url?shop=%s&url=%s",
		c.baseURL, url.QueryEscape(shopType), url.QueryEscape(productURL))

	var snapshot interfaces.ProductSnapshot
	if err := c.getJSON(ctx, endpoint, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to fetch product by url: %w", err)
	}
	return &snapshot, nil
}

func (c *RemoteCrawler) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
