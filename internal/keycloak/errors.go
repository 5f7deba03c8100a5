// errors.go — типизированные ошибки Keycloak-клиента.
package keycloak

import (
	"errors"
	"fmt"
)

// ErrUserNotFound возвращается операциями над пользователями, когда
// пользователь с указанным username отсутствует в realm.
var ErrUserNotFound = errors.New("пользователь не найден в Keycloak")

// AuthError — ошибка получения или применения токена доступа.
// Возвращается, когда Keycloak отклонил credentials или access token.
type AuthError struct {
	// HTTP-статус ответа Keycloak (0, если до ответа не дошло)
	Status int
	// Описание операции, при которой возникла ошибка
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("keycloak auth %s: статус %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("keycloak auth %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// DirectoryError — ошибка операции над справочником пользователей.
// Оборачивает сетевые сбои и неожиданные статусы Admin REST API.
type DirectoryError struct {
	// HTTP-статус ответа Keycloak (0, если до ответа не дошло)
	Status int
	// Описание операции, при которой возникла ошибка
	Op  string
	Err error
}

func (e *DirectoryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("keycloak %s: статус %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("keycloak %s: %v", e.Op, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }
