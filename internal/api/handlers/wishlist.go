package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/athebyme/pricewatch-service/internal/domain/services"
	"github.com/athebyme/pricewatch-service/pkg/errors"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// WishlistHandler обработчик запросов для избранного
type WishlistHandler struct {
	wishlists *services.WishlistService
	logger    interfaces.LoggerPort
}

// NewWishlistHandler создает новый обработчик избранного
func NewWishlistHandler(wishlists *services.WishlistService, logger interfaces.LoggerPort) *WishlistHandler {
	return &WishlistHandler{
		wishlists: wishlists,
		logger:    logger,
	}
}

type addWishlistRequest struct {
	UserID      string `json:"user_id"`
	ProductID   string `json:"product_id"`
	TargetPrice int    `json:"target_price"`
}

type targetPriceRequest struct {
	TargetPrice int `json:"target_price"`
}

// Add обрабатывает запрос на добавление товара в избранное
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addWishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "Некорректный формат данных")
		return
	}
	if req.UserID == "" || req.ProductID == "" {
		renderBadRequest(w, r, "ID пользователя и товара обязательны")
		return
	}
	if req.TargetPrice < 0 {
		renderBadRequest(w, r, "Целевая цена не может быть отрицательной")
		return
	}

	wishlist, err := h.wishlists.AddToWishlist(r.Context(), req.UserID, req.ProductID, req.TargetPrice)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			renderNotFound(w, r, "Товар не найден")
			return
		}
		h.logger.ErrorWithContext(r.Context(), "ошибка добавления в избранное", "error", err)
		renderInternalError(w, r, "Ошибка добавления в избранное")
		return
	}

	renderCreated(w, r, wishlist)
}

// UpdateTargetPrice обрабатывает запрос на смену целевой цены
func (h *WishlistHandler) UpdateTargetPrice(w http.ResponseWriter, r *http.Request) {
	wishlistID := chi.URLParam(r, "id")
	if wishlistID == "" {
		renderBadRequest(w, r, "ID позиции избранного не указан")
		return
	}

	var req targetPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "Некорректный формат данных")
		return
	}
	if req.TargetPrice < 0 {
		renderBadRequest(w, r, "Целевая цена не может быть отрицательной")
		return
	}

	wishlist, err := h.wishlists.UpdateTargetPrice(r.Context(), wishlistID, req.TargetPrice)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			renderNotFound(w, r, "Позиция избранного не найдена")
			return
		}
		h.logger.ErrorWithContext(r.Context(), "ошибка обновления целевой цены", "error", err)
		renderInternalError(w, r, "Ошибка обновления целевой цены")
		return
	}

	renderOK(w, r, wishlist)
}

// Remove обрабатывает запрос на удаление позиции избранного
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	wishlistID := chi.URLParam(r, "id")
	if wishlistID == "" {
		renderBadRequest(w, r, "ID позиции избранного не указан")
		return
	}

	if err := h.wishlists.RemoveFromWishlist(r.Context(), wishlistID); err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка удаления из избранного", "error", err)
		renderInternalError(w, r, "Ошибка удаления из избранного")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: true,
		Data: map[string]interface{}{
			"id":      wishlistID,
			"deleted": true,
		},
	})
}

// ListByUser обрабатывает запрос на избранное пользователя
func (h *WishlistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		renderBadRequest(w, r, "ID пользователя не указан")
		return
	}

	wishlists, err := h.wishlists.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка получения избранного", "error", err)
		renderInternalError(w, r, "Ошибка получения избранного")
		return
	}

	renderOK(w, r, wishlists)
}
