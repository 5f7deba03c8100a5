// users.go — обработчики /easybuy/admin пользовательских endpoints.
// Управление пользователями realm через Keycloak Admin API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/bigkaa/easybuy/internal/api/errors"
	"github.com/bigkaa/easybuy/internal/domain/model"
	"github.com/bigkaa/easybuy/internal/service"
)

// AddUser — POST /easybuy/admin/adduser.
// Регистрирует пользователя в realm Keycloak.
func (h *APIHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var user model.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if err := h.users.AddUser(r.Context(), &user); err != nil {
		h.writeUserError(w, "создания пользователя", user.Username, err)
		return
	}

	// Пароль никогда не возвращается
	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

// GetUsers — GET /easybuy/admin/getusers.
// Возвращает всех пользователей realm.
func (h *APIHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.writeUserError(w, "получения списка пользователей", "", err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// GetUser — GET /easybuy/admin/getuser?username=.
// Возвращает пользователей, чьё имя содержит подстроку username.
// Пустой результат — это 200 с пустым массивом, не ошибка.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		apierrors.ValidationError(w, "Параметр username обязателен")
		return
	}

	users, err := h.users.FindUsers(r.Context(), username)
	if err != nil {
		h.writeUserError(w, "поиска пользователя", username, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// loginResponse — ответ успешной проверки логина.
type loginResponse struct {
	Token string `json:"token"`
}

// LoginValidation — POST /easybuy/admin/loginvalidation.
// Проверяет логин/пароль через password grant Keycloak.
// Учётные данные принимаются как query-параметры или JSON-тело.
func (h *APIHandler) LoginValidation(w http.ResponseWriter, r *http.Request) {
	creds := model.Credentials{
		Username: r.URL.Query().Get("username"),
		Password: r.URL.Query().Get("password"),
	}

	// Если query-параметры не заданы, пробуем JSON-тело
	if creds.Username == "" && creds.Password == "" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			apierrors.ValidationError(w, "Укажите username и password (query или JSON)")
			return
		}
	}

	token, err := h.users.ValidateLogin(r.Context(), &creds)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			apierrors.Unauthorized(w, "Неверное имя пользователя или пароль")
		case errors.Is(err, service.ErrIDPUnavailable):
			apierrors.IDPUnavailable(w, "Identity Provider недоступен")
		default:
			h.logger.Error("Ошибка проверки логина", "username", creds.Username, "error", err)
			apierrors.InternalError(w, "Ошибка проверки логина")
		}
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// DeleteUser — DELETE /easybuy/admin/delete/user?username=.
// Удаляет пользователя по точному совпадению имени.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		apierrors.ValidationError(w, "Параметр username обязателен")
		return
	}

	if err := h.users.DeleteUser(r.Context(), username); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Пользователь не найден: "+username)
			return
		}
		h.writeUserError(w, "удаления пользователя", username, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeUserError переводит ошибки сервисного слоя пользователей в HTTP-ответ.
func (h *APIHandler) writeUserError(w http.ResponseWriter, op, username string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, "Пользователь уже существует: "+username)
	case errors.Is(err, service.ErrIDPUnavailable):
		apierrors.IDPUnavailable(w, "Identity Provider недоступен")
	default:
		h.logger.Error("Ошибка "+op, "username", username, "error", err)
		apierrors.InternalError(w, "Ошибка "+op)
	}
}
