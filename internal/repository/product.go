package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/easybuy/internal/domain/model"
)

// ProductRepository — интерфейс CRUD для таблицы products.
type ProductRepository interface {
	// Create создаёт новый товар.
	Create(ctx context.Context, p *model.Product) error
	// GetByID возвращает товар по UUID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
	// List возвращает все товары.
	List(ctx context.Context) ([]*model.Product, error)
	// Search возвращает товары по ключевому слову (подстрока, без учёта регистра).
	Search(ctx context.Context, keyword string) ([]*model.Product, error)
	// Update обновляет товар.
	Update(ctx context.Context, p *model.Product) error
	// Delete удаляет товар.
	Delete(ctx context.Context, id string) error
}

// productRepo — реализация ProductRepository.
type productRepo struct {
	db DBTX
}

// NewProductRepository создаёт репозиторий товаров.
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, name, price, quantity, category, search_keyword, created_at, updated_at`

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (id, name, price, quantity, category, search_keyword)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Price, p.Quantity, p.Category, p.SearchKeyword,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: товар с таким названием уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания товара: %w", err)
	}
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p := &model.Product{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Category,
		&p.SearchKeyword, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения товара: %w", err)
	}
	return p, nil
}

func (r *productRepo) List(ctx context.Context) ([]*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка товаров: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *productRepo) Search(ctx context.Context, keyword string) ([]*model.Product, error) {
	// Поиск по search_keyword и названию, без учёта регистра
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE search_keyword ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, keyword)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска товаров: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, price = $3, quantity = $4, category = $5, search_keyword = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Price, p.Quantity, p.Category, p.SearchKeyword,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: товар с таким названием уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления товара: %w", err)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления товара: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanProducts сканирует строки результата в слайс товаров.
func scanProducts(rows pgx.Rows) ([]*model.Product, error) {
	var result []*model.Product
	for rows.Next() {
		p := &model.Product{}
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Category,
			&p.SearchKeyword, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
