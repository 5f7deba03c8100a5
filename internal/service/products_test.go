package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/easybuy/internal/domain/model"
	"github.com/bigkaa/easybuy/internal/repository"
)

// --- Mock repository ---

// mockProductRepo — мок ProductRepository для unit-тестов.
type mockProductRepo struct {
	createFn func(ctx context.Context, p *model.Product) error
	getFn    func(ctx context.Context, id string) (*model.Product, error)
	listFn   func(ctx context.Context) ([]*model.Product, error)
	searchFn func(ctx context.Context, keyword string) ([]*model.Product, error)
	updateFn func(ctx context.Context, p *model.Product) error
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockProductRepo) Create(ctx context.Context, p *model.Product) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockProductRepo) List(ctx context.Context) ([]*model.Product, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockProductRepo) Search(ctx context.Context, keyword string) ([]*model.Product, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, keyword)
	}
	return nil, nil
}

func (m *mockProductRepo) Update(ctx context.Context, p *model.Product) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// validProduct возвращает корректный товар для тестов.
func validProduct() *model.Product {
	return &model.Product{
		Name:          "Ноутбук ThinkPad",
		Price:         120000,
		Quantity:      5,
		Category:      "laptops",
		SearchKeyword: "ноутбук",
	}
}

func newProductService(repo repository.ProductRepository) *ProductService {
	return NewProductService(repo, NewSearchCache(16, time.Minute), slog.Default())
}

// --- Тесты ProductService ---

// TestProductService_AddProduct проверяет генерацию UUID и создание.
func TestProductService_AddProduct(t *testing.T) {
	var created *model.Product
	repo := &mockProductRepo{
		createFn: func(_ context.Context, p *model.Product) error {
			created = p
			return nil
		},
	}

	svc := newProductService(repo)

	p, err := svc.AddProduct(context.Background(), validProduct())
	if err != nil {
		t.Fatalf("AddProduct ошибка: %v", err)
	}
	if p.ID == "" {
		t.Error("ID не сгенерирован")
	}
	if created == nil || created.ID != p.ID {
		t.Error("товар не передан в репозиторий")
	}
}

// TestProductService_AddProduct_Validation проверяет правила валидации.
func TestProductService_AddProduct_Validation(t *testing.T) {
	svc := newProductService(&mockProductRepo{})

	tests := []struct {
		name   string
		mutate func(p *model.Product)
	}{
		{"пустое название", func(p *model.Product) { p.Name = "  " }},
		{"пустая категория", func(p *model.Product) { p.Category = "" }},
		{"категория-заглушка", func(p *model.Product) { p.Category = "Select One" }},
		{"пустое ключевое слово", func(p *model.Product) { p.SearchKeyword = "" }},
		{"нулевая цена", func(p *model.Product) { p.Price = 0 }},
		{"отрицательная цена", func(p *model.Product) { p.Price = -10 }},
		{"нулевое количество", func(p *model.Product) { p.Quantity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(p)
			if _, err := svc.AddProduct(context.Background(), p); !errors.Is(err, ErrValidation) {
				t.Errorf("ожидался ErrValidation, получен %v", err)
			}
		})
	}
}

// TestProductService_UpdateProduct_NotFound проверяет ErrNotFound.
func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	repo := &mockProductRepo{
		updateFn: func(_ context.Context, _ *model.Product) error {
			return repository.ErrNotFound
		},
	}

	svc := newProductService(repo)

	p := validProduct()
	p.ID = "11111111-2222-3333-4444-555555555555"
	if _, err := svc.UpdateProduct(context.Background(), p); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидался ErrNotFound, получен %v", err)
	}
}

// TestProductService_UpdateProduct_RequiresID проверяет обязательность ID.
func TestProductService_UpdateProduct_RequiresID(t *testing.T) {
	svc := newProductService(&mockProductRepo{})

	if _, err := svc.UpdateProduct(context.Background(), validProduct()); !errors.Is(err, ErrValidation) {
		t.Errorf("ожидался ErrValidation, получен %v", err)
	}
}

// TestProductService_SearchProducts_Cache проверяет кэширование результатов поиска.
func TestProductService_SearchProducts_Cache(t *testing.T) {
	searches := 0
	repo := &mockProductRepo{
		searchFn: func(_ context.Context, keyword string) ([]*model.Product, error) {
			searches++
			return []*model.Product{
				{ID: "p-1", Name: "Ноутбук ThinkPad"},
			}, nil
		},
	}

	svc := newProductService(repo)
	ctx := context.Background()

	// Первый поиск — из репозитория
	found, err := svc.SearchProducts(ctx, "ноутбук")
	if err != nil {
		t.Fatalf("SearchProducts ошибка: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("ожидался 1 товар, получено %d", len(found))
	}

	// Повторный поиск — из кэша (ключ нормализуется по регистру)
	if _, err := svc.SearchProducts(ctx, "НОУТБУК"); err != nil {
		t.Fatalf("SearchProducts ошибка: %v", err)
	}
	if searches != 1 {
		t.Errorf("ожидался 1 запрос к репозиторию, было %d", searches)
	}
}

// TestProductService_SearchProducts_CacheInvalidation проверяет сброс кэша при записи.
func TestProductService_SearchProducts_CacheInvalidation(t *testing.T) {
	searches := 0
	repo := &mockProductRepo{
		searchFn: func(_ context.Context, _ string) ([]*model.Product, error) {
			searches++
			return nil, nil
		},
	}

	svc := newProductService(repo)
	ctx := context.Background()

	if _, err := svc.SearchProducts(ctx, "ноутбук"); err != nil {
		t.Fatalf("SearchProducts ошибка: %v", err)
	}

	// Запись в каталог сбрасывает кэш
	if _, err := svc.AddProduct(ctx, validProduct()); err != nil {
		t.Fatalf("AddProduct ошибка: %v", err)
	}

	if _, err := svc.SearchProducts(ctx, "ноутбук"); err != nil {
		t.Fatalf("SearchProducts ошибка: %v", err)
	}
	if searches != 2 {
		t.Errorf("ожидалось 2 запроса к репозиторию после инвалидации, было %d", searches)
	}
}

// TestProductService_SearchProducts_EmptyKeyword проверяет валидацию ключевого слова.
func TestProductService_SearchProducts_EmptyKeyword(t *testing.T) {
	svc := newProductService(&mockProductRepo{})

	if _, err := svc.SearchProducts(context.Background(), "   "); !errors.Is(err, ErrValidation) {
		t.Errorf("ожидался ErrValidation, получен %v", err)
	}
}

// TestProductService_ListByIDs проверяет пропуск отсутствующих ID.
func TestProductService_ListByIDs(t *testing.T) {
	repo := &mockProductRepo{
		getFn: func(_ context.Context, id string) (*model.Product, error) {
			if id == "p-2" {
				return nil, repository.ErrNotFound
			}
			return &model.Product{ID: id}, nil
		},
	}

	svc := newProductService(repo)

	products, err := svc.ListByIDs(context.Background(), []string{"p-1", "p-2", "p-3"})
	if err != nil {
		t.Fatalf("ListByIDs ошибка: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("ожидалось 2 товара, получено %d", len(products))
	}
	if products[0].ID != "p-1" || products[1].ID != "p-3" {
		t.Errorf("неожиданный порядок: %s, %s", products[0].ID, products[1].ID)
	}
}

// TestProductService_DeleteProduct_NotFound проверяет ErrNotFound при удалении.
func TestProductService_DeleteProduct_NotFound(t *testing.T) {
	repo := &mockProductRepo{
		deleteFn: func(_ context.Context, _ string) error {
			return repository.ErrNotFound
		},
	}

	svc := newProductService(repo)

	if err := svc.DeleteProduct(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидался ErrNotFound, получен %v", err)
	}
}

// TestSearchCache_GetSet проверяет базовые операции кэша.
func TestSearchCache_GetSet(t *testing.T) {
	cache := NewSearchCache(16, time.Minute)

	// Cache miss
	if _, ok := cache.Get("ноутбук"); ok {
		t.Fatal("ожидался cache miss для нового ключа")
	}

	products := []*model.Product{{ID: "p-1", Name: "Ноутбук ThinkPad"}}
	cache.Set("Ноутбук ", products)

	// Ключ нормализуется: регистр и пробелы не влияют
	got, ok := cache.Get("ноутбук")
	if !ok {
		t.Fatal("ожидался cache hit после Set")
	}
	if len(got) != 1 || got[0].ID != "p-1" {
		t.Errorf("неожиданный результат из кэша: %+v", got)
	}

	// Purge сбрасывает кэш
	cache.Purge()
	if _, ok := cache.Get("ноутбук"); ok {
		t.Fatal("ожидался cache miss после Purge")
	}
}
