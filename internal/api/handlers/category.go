package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/internal/domain/services"
	"github.com/athebyme/pricewatch-service/pkg/errors"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
)

// CategoryHandler обработчик запросов для дерева категорий
type CategoryHandler struct {
	products *services.ProductService
	logger   interfaces.LoggerPort
}

// NewCategoryHandler создает новый обработчик категорий
func NewCategoryHandler(products *services.ProductService, logger interfaces.LoggerPort) *CategoryHandler {
	return &CategoryHandler{
		products: products,
		logger:   logger,
	}
}

type createCategoryRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

type categoryNode struct {
	*models.Category
	Children []*categoryNode `json:"children,omitempty"`
}

// ListCategories обрабатывает запрос на дерево категорий
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	tree, err := h.products.GetCategoryTree(r.Context())
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка получения категорий", "error", err)
		renderInternalError(w, r, "Ошибка получения категорий")
		return
	}

	var roots []*categoryNode
	for _, root := range tree.Roots() {
		roots = append(roots, buildCategoryNode(tree, root))
	}
	renderOK(w, r, roots)
}

func buildCategoryNode(tree *models.CategoryTree, category *models.Category) *categoryNode {
	node := &categoryNode{Category: category}
	for _, child := range tree.Children(category.ID) {
		node.Children = append(node.Children, buildCategoryNode(tree, child))
	}
	return node
}

// CreateCategory обрабатывает запрос на создание категории
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		renderBadRequest(w, r, "Некорректное тело запроса")
		return
	}
	if body.Name == "" {
		renderBadRequest(w, r, "Название категории не указано")
		return
	}

	category, err := h.products.CreateCategory(r.Context(), body.Name, body.ParentID)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			renderNotFound(w, r, "Родительская категория не найдена")
			return
		}
		h.logger.ErrorWithContext(r.Context(), "ошибка создания категории", "error", err)
		renderInternalError(w, r, "Ошибка создания категории")
		return
	}

	renderCreated(w, r, category)
}
