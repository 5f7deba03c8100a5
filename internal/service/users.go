// Пакет service — бизнес-логика easybuy-api.
// users.go — сервис управления пользователями магазина.
// Пользователи хранятся в Keycloak; сервис преобразует доменную модель
// в представление Keycloak (город и телефон — realm-атрибуты city/phno).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/easybuy/internal/domain/model"
	"github.com/bigkaa/easybuy/internal/keycloak"
)

// Имена realm-атрибутов пользователя в Keycloak.
const (
	attrCity  = "city"
	attrPhone = "phno"
)

// UserDirectory — операции Keycloak-клиента, нужные сервису пользователей.
// Выделен в интерфейс для подмены в unit-тестах.
type UserDirectory interface {
	CreateUser(ctx context.Context, user *keycloak.KeycloakUser, password string) (string, error)
	ListUsers(ctx context.Context, username string) ([]keycloak.KeycloakUser, error)
	DeleteUser(ctx context.Context, username string) error
	ValidateLogin(ctx context.Context, username, password string) (string, error)
}

// UserService — сервис управления пользователями магазина.
type UserService struct {
	directory UserDirectory
	logger    *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(directory UserDirectory, logger *slog.Logger) *UserService {
	return &UserService{
		directory: directory,
		logger:    logger.With(slog.String("component", "user_service")),
	}
}

// AddUser регистрирует нового пользователя в Keycloak.
func (s *UserService) AddUser(ctx context.Context, user *model.User) error {
	if err := validateUser(user); err != nil {
		return err
	}

	kcUser := toKeycloakUser(user)
	if _, err := s.directory.CreateUser(ctx, kcUser, user.Password); err != nil {
		return s.wrapDirectoryError("создание пользователя", err)
	}

	return nil
}

// ListUsers возвращает всех пользователей realm.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	kcUsers, err := s.directory.ListUsers(ctx, "")
	if err != nil {
		return nil, s.wrapDirectoryError("получение списка пользователей", err)
	}

	users := make([]*model.User, 0, len(kcUsers))
	for i := range kcUsers {
		users = append(users, fromKeycloakUser(&kcUsers[i]))
	}

	return users, nil
}

// FindUsers возвращает пользователей по фильтру username.
// Keycloak фильтрует по подстроке; пустой результат — не ошибка.
func (s *UserService) FindUsers(ctx context.Context, username string) ([]*model.User, error) {
	kcUsers, err := s.directory.ListUsers(ctx, username)
	if err != nil {
		return nil, s.wrapDirectoryError("поиск пользователей", err)
	}

	users := make([]*model.User, 0, len(kcUsers))
	for i := range kcUsers {
		users = append(users, fromKeycloakUser(&kcUsers[i]))
	}

	return users, nil
}

// DeleteUser удаляет пользователя по username.
// Отсутствие пользователя — ErrNotFound, а не сбой.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	if err := s.directory.DeleteUser(ctx, username); err != nil {
		if errors.Is(err, keycloak.ErrUserNotFound) {
			return ErrNotFound
		}
		return s.wrapDirectoryError("удаление пользователя", err)
	}

	s.logger.Info("пользователь удалён", slog.String("username", username))
	return nil
}

// ValidateLogin проверяет credentials пользователя через Keycloak
// и возвращает выданный access token.
// Отклонённые credentials — ErrInvalidCredentials, сбой Keycloak — ErrIDPUnavailable.
func (s *UserService) ValidateLogin(ctx context.Context, creds *model.Credentials) (string, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return "", fmt.Errorf("%w: укажите имя пользователя и пароль", ErrValidation)
	}

	token, err := s.directory.ValidateLogin(ctx, creds.Username, creds.Password)
	if err != nil {
		var authErr *keycloak.AuthError
		// 400/401 — неверные credentials, остальное — сбой Keycloak
		if errors.As(err, &authErr) && (authErr.Status == 400 || authErr.Status == 401) {
			return "", ErrInvalidCredentials
		}
		return "", s.wrapDirectoryError("проверка логина", err)
	}

	return token, nil
}

// wrapDirectoryError переводит ошибки Keycloak-клиента в ошибки сервисного слоя.
func (s *UserService) wrapDirectoryError(op string, err error) error {
	var dirErr *keycloak.DirectoryError
	if errors.As(err, &dirErr) && dirErr.Status == 409 {
		return fmt.Errorf("%w: пользователь с таким именем уже существует", ErrConflict)
	}

	s.logger.Error("Keycloak недоступен",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %s: %v", ErrIDPUnavailable, op, err)
}

// validateUser проверяет обязательные поля при регистрации.
func validateUser(user *model.User) error {
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: имя пользователя обязательно", ErrValidation)
	}
	if user.Password == "" {
		return fmt.Errorf("%w: пароль обязателен", ErrValidation)
	}
	return nil
}

// toKeycloakUser преобразует доменную модель в представление Keycloak.
// Город и телефон уходят в realm-атрибуты.
func toKeycloakUser(user *model.User) *keycloak.KeycloakUser {
	attrs := map[string][]string{}
	if user.City != "" {
		attrs[attrCity] = []string{user.City}
	}
	if user.PhoneNumber != "" {
		attrs[attrPhone] = []string{user.PhoneNumber}
	}

	return &keycloak.KeycloakUser{
		Username:   user.Username,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Attributes: attrs,
	}
}

// fromKeycloakUser преобразует представление Keycloak в доменную модель.
// Отсутствующие атрибуты дают пустые строки, пароль не возвращается.
func fromKeycloakUser(kcUser *keycloak.KeycloakUser) *model.User {
	return &model.User{
		Username:    kcUser.Username,
		Email:       kcUser.Email,
		FirstName:   kcUser.FirstName,
		LastName:    kcUser.LastName,
		City:        kcUser.FirstAttr(attrCity),
		PhoneNumber: kcUser.FirstAttr(attrPhone),
	}
}
