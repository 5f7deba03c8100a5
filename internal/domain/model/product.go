package model

import "time"

// Product — товар каталога.
// Хранится в таблице products.
type Product struct {
	// ID — UUID товара
	ID string `json:"id"`
	// Name — название товара
	Name string `json:"productname"`
	// Price — цена (в условных единицах)
	Price float64 `json:"price"`
	// Quantity — количество на складе
	Quantity int `json:"quantity"`
	// Category — категория товара
	Category string `json:"category"`
	// SearchKeyword — ключевое слово для поиска
	SearchKeyword string `json:"searchkeyword"`
	// CreatedAt — время создания записи
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time `json:"updatedAt"`
}
