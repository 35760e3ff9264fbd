package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/internal/domain/services"
	"github.com/athebyme/pricewatch-service/internal/utils"
	"github.com/athebyme/pricewatch-service/pkg/errors"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
	pkgutils "github.com/athebyme/pricewatch-service/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// scanTimeout ограничивает длительность фонового обхода каталога
const scanTimeout = 30 * time.Minute

// CrawlHandler обработчик запросов для обходов каталогов
type CrawlHandler struct {
	crawls *services.CrawlService
	logger interfaces.LoggerPort
}

// NewCrawlHandler создает новый обработчик обходов
func NewCrawlHandler(crawls *services.CrawlService, logger interfaces.LoggerPort) *CrawlHandler {
	return &CrawlHandler{
		crawls: crawls,
		logger: logger,
	}
}

type submitRequestBody struct {
	UserID     string `json:"user_id"`
	ProductURL string `json:"product_url"`
	ShopType   string `json:"shop_type"`
}

// TriggerScan обрабатывает запрос на запуск полного обхода каталога.
// Обход выполняется в фоне; клиенту сразу возвращается принятое задание.
func (h *CrawlHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	shopType := models.ShopType(r.URL.Query().Get("shop"))
	if shopType == "" {
		renderBadRequest(w, r, "Магазин не указан")
		return
	}

	// Запрос живет короче обхода, поэтому задание получает собственный контекст
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	go func() {
		defer cancel()
		if _, err := h.crawls.RunCatalogScan(ctx, shopType); err != nil {
			h.logger.Error("фоновый обход каталога не удался",
				"shop_type", shopType, "error", err)
		}
	}()

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response{
		Success: true,
		Data: map[string]interface{}{
			"shop_type": shopType,
			"accepted":  true,
		},
	})
}

// GetJob обрабатывает запрос на получение задания обхода по ID
func (h *CrawlHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		renderBadRequest(w, r, "ID задания не указан")
		return
	}

	job, err := h.crawls.GetJob(r.Context(), jobID)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			renderNotFound(w, r, "Задание не найдено")
			return
		}
		h.logger.ErrorWithContext(r.Context(), "ошибка получения задания", "error", err)
		renderInternalError(w, r, "Ошибка получения задания")
		return
	}

	renderOK(w, r, job)
}

// ListJobs обрабатывает запрос на список заданий магазина
func (h *CrawlHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	shopType := models.ShopType(r.URL.Query().Get("shop"))
	if shopType == "" {
		renderBadRequest(w, r, "Магазин не указан")
		return
	}

	page, pageSize := parsePageParams(r)

	jobs, total, err := h.crawls.ListJobs(r.Context(), shopType, page, pageSize)
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка получения заданий", "error", err)
		renderInternalError(w, r, "Ошибка получения заданий")
		return
	}

	pagination := pkgutils.NewPagination(page, pageSize, "created_at", true)
	pagination.SetTotal(int64(total))

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: true,
		Data:    jobs,
		Meta: map[string]interface{}{
			"pagination": pagination,
		},
	})
}

// SubmitRequest обрабатывает пользовательский запрос на обход товара по ссылке
func (h *CrawlHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req submitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "Некорректный формат данных")
		return
	}
	if req.UserID == "" {
		renderBadRequest(w, r, "ID пользователя не указан")
		return
	}

	request, err := h.crawls.SubmitUserRequest(r.Context(), req.UserID, req.ProductURL, models.ShopType(req.ShopType))
	if err != nil {
		switch {
		case stderrors.Is(err, utils.ErrInvalidShopType):
			renderBadRequest(w, r, "Неизвестный магазин")
		case stderrors.Is(err, utils.ErrInvalidProductURL):
			renderBadRequest(w, r, "Ссылка на товар не указана")
		default:
			h.logger.ErrorWithContext(r.Context(), "ошибка приема запроса на обход", "error", err)
			renderInternalError(w, r, "Ошибка приема запроса")
		}
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response{
		Success: true,
		Data:    request,
	})
}

// GetRequest обрабатывает запрос на статус пользовательского запроса
func (h *CrawlHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		renderBadRequest(w, r, "ID запроса не указан")
		return
	}

	request, err := h.crawls.GetRequest(r.Context(), requestID)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			renderNotFound(w, r, "Запрос не найден")
			return
		}
		h.logger.ErrorWithContext(r.Context(), "ошибка получения запроса", "error", err)
		renderInternalError(w, r, "Ошибка получения запроса")
		return
	}

	renderOK(w, r, request)
}

// ListRequests обрабатывает запрос на список запросов пользователя
func (h *CrawlHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		renderBadRequest(w, r, "ID пользователя не указан")
		return
	}

	requests, err := h.crawls.ListRequestsByUser(r.Context(), userID)
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка получения запросов пользователя", "error", err)
		renderInternalError(w, r, "Ошибка получения запросов")
		return
	}

	renderOK(w, r, requests)
}
