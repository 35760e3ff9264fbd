package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/pkg/errors"
)

func TestGetProductServesFromCache(t *testing.T) {
	storage := newFakeStorage()
	cache := newFakeCache()
	service := NewProductService(storage, cache, noopLogger{})
	ctx := context.Background()

	product := models.NewProduct(8001, "청바지", models.ShopTypeMusinsa)
	product.UpdatePrice(45000, 50000, 10)
	if err := storage.SaveProduct(ctx, product); err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}

	first, err := service.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if first.CurrentPrice != 45000 {
		t.Errorf("CurrentPrice = %d, want 45000", first.CurrentPrice)
	}

	// Второе чтение идет из кэша: удаление из хранилища его не трогает
	delete(storage.products, product.ID)
	second, err := service.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct from cache: %v", err)
	}
	if second.ID != product.ID || second.CurrentPrice != 45000 {
		t.Errorf("cached product = %+v, want the original", second)
	}
}

func TestGetProductNotFound(t *testing.T) {
	service := NewProductService(newFakeStorage(), newFakeCache(), noopLogger{})

	if _, err := service.GetProduct(context.Background(), "missing"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetDetailNotFound(t *testing.T) {
	service := NewProductService(newFakeStorage(), newFakeCache(), noopLogger{})

	if _, err := service.GetDetail(context.Background(), "missing"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateCategoryBuildsTree(t *testing.T) {
	storage := newFakeStorage()
	service := NewProductService(storage, newFakeCache(), noopLogger{})
	ctx := context.Background()

	root, err := service.CreateCategory(ctx, "상의", "")
	if err != nil {
		t.Fatalf("CreateCategory root: %v", err)
	}
	if !root.IsRoot() {
		t.Error("root category reports IsRoot() = false")
	}

	child, err := service.CreateCategory(ctx, "맨투맨", root.ID)
	if err != nil {
		t.Fatalf("CreateCategory child: %v", err)
	}

	tree, err := service.GetCategoryTree(ctx)
	if err != nil {
		t.Fatalf("GetCategoryTree: %v", err)
	}
	if roots := tree.Roots(); len(roots) != 1 || roots[0].ID != root.ID {
		t.Errorf("Roots = %+v, want the single root %s", roots, root.ID)
	}
	children := tree.Children(root.ID)
	if len(children) != 1 || children[0].ID != child.ID {
		t.Errorf("Children(%s) = %+v, want [%s]", root.ID, children, child.ID)
	}
	if got, ok := tree.Get(child.ID); !ok || got.ParentID != root.ID {
		t.Errorf("Get(%s) = %+v, %v", child.ID, got, ok)
	}
}

func TestCreateCategoryRejectsMissingParent(t *testing.T) {
	service := NewProductService(newFakeStorage(), newFakeCache(), noopLogger{})

	_, err := service.CreateCategory(context.Background(), "맨투맨", "missing")
	if !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetPriceHistoryRespectsDayRange(t *testing.T) {
	storage := newFakeStorage()
	service := NewProductService(storage, newFakeCache(), noopLogger{})
	ctx := context.Background()

	now := time.Now().UTC()
	for _, daysAgo := range []int{1, 10, 40, 120} {
		err := storage.SaveHistory(ctx, &models.ProductHistory{
			ProductID: "prod-1",
			Date:      now.AddDate(0, 0, -daysAgo),
			Price:     10000 + daysAgo,
		})
		if err != nil {
			t.Fatalf("SaveHistory: %v", err)
		}
	}

	history, err := service.GetPriceHistory(ctx, "prod-1", 30)
	if err != nil {
		t.Fatalf("GetPriceHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("30-day history has %d points, want 2", len(history))
	}

	// days <= 0 означает окно по умолчанию в 90 дней
	history, err = service.GetPriceHistory(ctx, "prod-1", 0)
	if err != nil {
		t.Fatalf("GetPriceHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("default history has %d points, want 3", len(history))
	}
}
