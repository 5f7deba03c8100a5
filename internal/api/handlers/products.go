// products.go — обработчики каталога товаров.
// Административный CRUD (/easybuy/admin) и пользовательские выборки (/easybuy/user).
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/easybuy/internal/api/errors"
	"github.com/bigkaa/easybuy/internal/domain/model"
	"github.com/bigkaa/easybuy/internal/service"
)

// AddProduct — POST /easybuy/admin/addproduct.
// Добавляет товар в каталог.
func (h *APIHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	created, err := h.products.AddProduct(r.Context(), &p)
	if err != nil {
		h.writeProductError(w, "добавления товара", err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// UpdateProduct — PUT /easybuy/admin/updateproduct/{id}.
// Полностью обновляет товар.
func (h *APIHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}
	p.ID = id

	updated, err := h.products.UpdateProduct(r.Context(), &p)
	if err != nil {
		h.writeProductError(w, "обновления товара", err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteProduct — DELETE /easybuy/admin/deleteproduct/{id}.
// Удаляет товар из каталога.
func (h *APIHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		h.writeProductError(w, "удаления товара", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// GetProducts — GET /easybuy/user/getproducts.
// Возвращает весь каталог товаров.
func (h *APIHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		h.writeProductError(w, "получения каталога", err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// SearchProducts — GET /easybuy/user/searchproducts?searchkeyword=.
// Поиск товаров по ключевому слову. Пустой результат — 204 No Content.
func (h *APIHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("searchkeyword")

	products, err := h.products.SearchProducts(r.Context(), keyword)
	if err != nil {
		h.writeProductError(w, "поиска товаров", err)
		return
	}

	if len(products) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetProduct — GET /easybuy/user/product/{id}.
// Возвращает один товар по ID.
func (h *APIHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.writeProductError(w, "получения товара", err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// ProductList — GET /easybuy/user/productlist?ids=id1,id2.
// Возвращает товары по списку ID. Отсутствующие ID пропускаются.
func (h *APIHandler) ProductList(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		apierrors.ValidationError(w, "Параметр ids обязателен")
		return
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		apierrors.ValidationError(w, "Параметр ids не содержит идентификаторов")
		return
	}

	products, err := h.products.ListByIDs(r.Context(), ids)
	if err != nil {
		h.writeProductError(w, "получения списка товаров", err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// writeProductError переводит ошибки сервисного слоя каталога в HTTP-ответ.
func (h *APIHandler) writeProductError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Товар не найден")
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, "Товар с таким именем уже существует")
	default:
		h.logger.Error("Ошибка "+op, "error", err)
		apierrors.InternalError(w, "Ошибка "+op)
	}
}
