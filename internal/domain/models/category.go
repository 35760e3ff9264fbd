package models

import (
	"time"

	"github.com/google/uuid"
)

// Category представляет узел дерева категорий. Хранится только указатель
// на родителя; дочерние узлы выводятся индексом, а не обратной коллекцией,
// которая могла бы рассинхронизироваться.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCategory создает категорию; пустой parentID означает корневую
func NewCategory(name, parentID string) *Category {
	return &Category{
		ID:        uuid.New().String(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
}

// IsRoot сообщает, является ли категория корневой
func (c *Category) IsRoot() bool {
	return c.ParentID == ""
}

// CategoryTree - индекс категорий по идентификатору для обхода дерева
type CategoryTree struct {
	byID       map[string]*Category
	childrenOf map[string][]*Category
}

// NewCategoryTree строит индекс из плоского списка категорий
func NewCategoryTree(categories []*Category) *CategoryTree {
	t := &CategoryTree{
		byID:       make(map[string]*Category, len(categories)),
		childrenOf: make(map[string][]*Category),
	}
	for _, c := range categories {
		t.byID[c.ID] = c
	}
	for _, c := range categories {
		if c.ParentID != "" {
			t.childrenOf[c.ParentID] = append(t.childrenOf[c.ParentID], c)
		}
	}
	return t
}

// Get возвращает категорию по идентификатору
func (t *CategoryTree) Get(id string) (*Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Children возвращает непосредственных потомков категории
func (t *CategoryTree) Children(id string) []*Category {
	return t.childrenOf[id]
}

// Roots возвращает корневые категории
func (t *CategoryTree) Roots() []*Category {
	var roots []*Category
	for _, c := range t.byID {
		if c.IsRoot() {
			roots = append(roots, c)
		}
	}
	return roots
}
