// products.go — сервис каталога товаров.
// Валидация входных данных, генерация UUID, кэширование поиска.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bigkaa/easybuy/internal/domain/model"
	"github.com/bigkaa/easybuy/internal/repository"
)

// categoryPlaceholder — значение категории из невыбранного пункта формы.
const categoryPlaceholder = "select one"

// ProductService — сервис каталога товаров.
type ProductService struct {
	repo   repository.ProductRepository
	cache  *SearchCache
	logger *slog.Logger
}

// NewProductService создаёт сервис каталога.
func NewProductService(repo repository.ProductRepository, cache *SearchCache, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("component", "product_service")),
	}
}

// AddProduct валидирует и создаёт товар. ID генерируется сервисом.
func (s *ProductService) AddProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	p.ID = uuid.New().String()
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, fmt.Errorf("создание товара: %w", err)
	}

	// Каталог изменился — результаты поиска устарели
	s.cache.Purge()

	s.logger.Info("товар добавлен",
		slog.String("id", p.ID),
		slog.String("name", p.Name),
	)

	return p, nil
}

// UpdateProduct валидирует и обновляет товар по ID.
func (s *ProductService) UpdateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: идентификатор товара обязателен", ErrValidation)
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, fmt.Errorf("обновление товара: %w", err)
	}

	s.cache.Purge()

	return p, nil
}

// DeleteProduct удаляет товар по ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление товара: %w", err)
	}

	s.cache.Purge()

	s.logger.Info("товар удалён", slog.String("id", id))
	return nil
}

// GetProduct возвращает товар по ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение товара: %w", err)
	}
	return p, nil
}

// ListProducts возвращает все товары каталога.
func (s *ProductService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение каталога: %w", err)
	}
	return products, nil
}

// ListByIDs возвращает товары по списку ID.
// Отсутствующие ID пропускаются, порядок запроса сохраняется.
func (s *ProductService) ListByIDs(ctx context.Context, ids []string) ([]*model.Product, error) {
	products := make([]*model.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("получение товара %s: %w", id, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// SearchProducts возвращает товары по ключевому слову.
// Результат кэшируется; запись в каталог сбрасывает кэш.
func (s *ProductService) SearchProducts(ctx context.Context, keyword string) ([]*model.Product, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("%w: ключевое слово поиска обязательно", ErrValidation)
	}

	if cached, ok := s.cache.Get(keyword); ok {
		return cached, nil
	}

	products, err := s.repo.Search(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("поиск товаров: %w", err)
	}

	s.cache.Set(keyword, products)
	return products, nil
}

// validateProduct проверяет обязательные поля товара.
func validateProduct(p *model.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: название товара обязательно", ErrValidation)
	}
	category := strings.TrimSpace(p.Category)
	if category == "" || strings.EqualFold(category, categoryPlaceholder) {
		return fmt.Errorf("%w: выберите категорию товара", ErrValidation)
	}
	if strings.TrimSpace(p.SearchKeyword) == "" {
		return fmt.Errorf("%w: ключевое слово поиска обязательно", ErrValidation)
	}
	if p.Price <= 0 {
		return fmt.Errorf("%w: цена должна быть больше нуля", ErrValidation)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("%w: количество должно быть больше нуля", ErrValidation)
	}
	return nil
}
