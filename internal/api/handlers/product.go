package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/internal/domain/services"
	"github.com/athebyme/pricewatch-service/pkg/errors"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
	"github.com/athebyme/pricewatch-service/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// ProductHandler обработчик запросов для товаров
type ProductHandler struct {
	products   *services.ProductService
	detections *services.DetectionService
	logger     interfaces.LoggerPort
}

// NewProductHandler создает новый обработчик товаров
func NewProductHandler(products *services.ProductService, detections *services.DetectionService, logger interfaces.LoggerPort) *ProductHandler {
	return &ProductHandler{
		products:   products,
		detections: detections,
		logger:     logger,
	}
}

// GetProduct обрабатывает запрос на получение товара по ID
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		renderBadRequest(w, r, "ID товара не указан")
		return
	}

	product, err := h.products.GetProduct(r.Context(), productID)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			renderNotFound(w, r, "Товар не найден")
			return
		}
		h.logger.ErrorWithContext(r.Context(), "ошибка получения товара", "error", err)
		renderInternalError(w, r, "Ошибка получения товара")
		return
	}

	renderOK(w, r, product)
}

// ListProducts обрабатывает запрос на получение списка товаров магазина
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	shopType := models.ShopType(r.URL.Query().Get("shop"))
	if shopType == "" {
		renderBadRequest(w, r, "Магазин не указан")
		return
	}

	page, pageSize := parsePageParams(r)

	products, total, err := h.products.ListProducts(r.Context(), shopType, page, pageSize)
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка получения списка товаров", "error", err)
		renderInternalError(w, r, "Ошибка получения списка товаров")
		return
	}

	pagination := utils.NewPagination(page, pageSize, "updated_at", true)
	pagination.SetTotal(int64(total))

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: true,
		Data:    products,
		Meta: map[string]interface{}{
			"pagination": pagination,
		},
	})
}

// ListFakeDiscounts обрабатывает запрос на список товаров с фейковыми скидками
func (h *ProductHandler) ListFakeDiscounts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePageParams(r)

	products, total, err := h.products.ListFakeDiscounts(r.Context(), page, pageSize)
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка получения фейковых скидок", "error", err)
		renderInternalError(w, r, "Ошибка получения списка фейковых скидок")
		return
	}

	pagination := utils.NewPagination(page, pageSize, "fake_discount_score", true)
	pagination.SetTotal(int64(total))

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: true,
		Data:    products,
		Meta: map[string]interface{}{
			"pagination": pagination,
		},
	})
}

// GetDetail обрабатывает запрос на агрегированную статистику цен товара
func (h *ProductHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		renderBadRequest(w, r, "ID товара не указан")
		return
	}

	detail, err := h.products.GetDetail(r.Context(), productID)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			renderNotFound(w, r, "Статистика товара не найдена")
			return
		}
		h.logger.ErrorWithContext(r.Context(), "ошибка получения статистики товара", "error", err)
		renderInternalError(w, r, "Ошибка получения статистики товара")
		return
	}

	renderOK(w, r, detail)
}

// GetPriceHistory обрабатывает запрос на историю цен товара
func (h *ProductHandler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		renderBadRequest(w, r, "ID товара не указан")
		return
	}

	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 0 {
		days = 0 // сервис подставит окно по умолчанию
	}

	history, err := h.products.GetPriceHistory(r.Context(), productID, days)
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка получения истории цен", "error", err)
		renderInternalError(w, r, "Ошибка получения истории цен")
		return
	}

	renderOK(w, r, history)
}

// ListDetections обрабатывает запрос на список обнаружений фейковых скидок товара
func (h *ProductHandler) ListDetections(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		renderBadRequest(w, r, "ID товара не указан")
		return
	}

	detections, err := h.detections.ListDetections(r.Context(), productID)
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка получения обнаружений", "error", err)
		renderInternalError(w, r, "Ошибка получения обнаружений")
		return
	}

	renderOK(w, r, detections)
}
