package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

// SaveCrawlJob сохраняет задание обхода вместе с текущими счетчиками
func (r *Storage) SaveCrawlJob(ctx context.Context, job *models.CrawlJob) error {
	q := r.getExecutor(ctx)

	query := `
		INSERT INTO pricewatch.crawl_jobs (id, job_type, shop_type, status,
			total_count, success_count, fail_count,
			started_at, completed_at, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET
			status = $4,
			total_count = $5,
			success_count = $6,
			fail_count = $7,
			started_at = $8,
			completed_at = $9,
			error_message = $10
	`
	total, success, fail := job.Counts()
	_, err := q.Exec(ctx, query,
		job.ID, job.JobType, job.ShopType, job.CurrentStatus(),
		total, success, fail,
		job.StartedAt, job.CompletedAt, job.ErrorMessage, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save crawl job: %w", err)
	}
	return nil
}

// GetCrawlJob получает задание обхода по ID
func (r *Storage) GetCrawlJob(ctx context.Context, jobID string) (*models.CrawlJob, error) {
	q := r.getExecutor(ctx)

	query := crawlJobSelectColumns + `
		FROM pricewatch.crawl_jobs
		WHERE id = $1
	`
	job, err := scanCrawlJob(q.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Задание не найдено
		}
		return nil, fmt.Errorf("failed to get crawl job: %w", err)
	}
	return job, nil
}

// ListCrawlJobs возвращает страницу заданий магазина, свежие впереди
func (r *Storage) ListCrawlJobs(ctx context.Context, shopType models.ShopType, page, pageSize int) ([]*models.CrawlJob, int, error) {
	q := r.getExecutor(ctx)

	var total int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM pricewatch.crawl_jobs WHERE shop_type = $1`, shopType).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count crawl jobs: %w", err)
	}
	if total == 0 {
		return []*models.CrawlJob{}, 0, nil
	}

	query := crawlJobSelectColumns + `
		FROM pricewatch.crawl_jobs
		WHERE shop_type = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.Query(ctx, query, shopType, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list crawl jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.CrawlJob
	for rows.Next() {
		job, err := scanCrawlJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan crawl job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error while iterating crawl job rows: %w", rows.Err())
	}
	return jobs, total, nil
}

// SaveCrawlRequest сохраняет пользовательский запрос на обход товара
func (r *Storage) SaveCrawlRequest(ctx context.Context, request *models.UserProductCrawlRequest) error {
	q := r.getExecutor(ctx)

	query := `
		INSERT INTO pricewatch.crawl_requests (id, user_id, product_url, shop_type, status,
			product_id, error_message, requested_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			status = $5,
			product_id = $6,
			error_message = $7,
			processed_at = $9
	`
	_, err := q.Exec(ctx, query,
		request.ID, request.UserID, request.ProductURL, request.ShopType, request.Status,
		nullIfEmpty(request.ProductID), request.ErrorMessage, request.RequestedAt, request.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to save crawl request: %w", err)
	}
	return nil
}

// GetCrawlRequest получает пользовательский запрос по ID
func (r *Storage) GetCrawlRequest(ctx context.Context, requestID string) (*models.UserProductCrawlRequest, error) {
	q := r.getExecutor(ctx)

	query := crawlRequestSelectColumns + `
		FROM pricewatch.crawl_requests
		WHERE id = $1
	`
	request, err := scanCrawlRequest(q.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get crawl request: %w", err)
	}
	return request, nil
}

// ListPendingCrawlRequests возвращает необработанные запросы, старые впереди
func (r *Storage) ListPendingCrawlRequests(ctx context.Context, limit int) ([]*models.UserProductCrawlRequest, error) {
	q := r.getExecutor(ctx)

	query := crawlRequestSelectColumns + `
		FROM pricewatch.crawl_requests
		WHERE status = $1
		ORDER BY requested_at
		LIMIT $2
	`
	rows, err := q.Query(ctx, query, models.RequestStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending crawl requests: %w", err)
	}
	defer rows.Close()

	return collectCrawlRequests(rows)
}

// ListCrawlRequestsByUser возвращает запросы пользователя, свежие впереди
func (r *Storage) ListCrawlRequestsByUser(ctx context.Context, userID string) ([]*models.UserProductCrawlRequest, error) {
	q := r.getExecutor(ctx)

	query := crawlRequestSelectColumns + `
		FROM pricewatch.crawl_requests
		WHERE user_id = $1
		ORDER BY requested_at DESC
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl requests by user: %w", err)
	}
	defer rows.Close()

	return collectCrawlRequests(rows)
}

const crawlJobSelectColumns = `
	SELECT id, job_type, shop_type, status,
		total_count, success_count, fail_count,
		started_at, completed_at, error_message, created_at
`

func scanCrawlJob(row pgx.Row) (*models.CrawlJob, error) {
	var job models.CrawlJob
	err := row.Scan(
		&job.ID, &job.JobType, &job.ShopType, &job.Status,
		&job.TotalCount, &job.SuccessCount, &job.FailCount,
		&job.StartedAt, &job.CompletedAt, &job.ErrorMessage, &job.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

const crawlRequestSelectColumns = `
	SELECT id, user_id, product_url, shop_type, status,
		product_id, error_message, requested_at, processed_at
`

func scanCrawlRequest(row pgx.Row) (*models.UserProductCrawlRequest, error) {
	var request models.UserProductCrawlRequest
	var productID *string
	err := row.Scan(
		&request.ID, &request.UserID, &request.ProductURL, &request.ShopType, &request.Status,
		&productID, &request.ErrorMessage, &request.RequestedAt, &request.ProcessedAt)
	if err != nil {
		return nil, err
	}
	if productID != nil {
		request.ProductID = *productID
	}
	return &request, nil
}

func collectCrawlRequests(rows pgx.Rows) ([]*models.UserProductCrawlRequest, error) {
	var requests []*models.UserProductCrawlRequest
	for rows.Next() {
		request, err := scanCrawlRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crawl request row: %w", err)
		}
		requests = append(requests, request)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error while iterating crawl request rows: %w", rows.Err())
	}
	return requests, nil
}
