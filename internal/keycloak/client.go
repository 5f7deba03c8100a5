// client.go — HTTP-клиент к Keycloak Admin REST API.
// Реализует автоматическое получение service account token через Client Credentials flow,
// кэширование токена (обновление за 30s до expiration) и повтор запроса
// после инвалидации токена при ответе 401.
// Операции: CreateUser, ListUsers, FindByUsername, DeleteUser, ValidateLogin.
package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client — HTTP-клиент к Keycloak Admin REST API.
type Client struct {
	baseURL      string // Базовый URL Keycloak (без trailing slash)
	realm        string // Имя realm
	clientID     string // Client ID для Client Credentials flow
	clientSecret string // Client Secret

	httpClient *http.Client
	logger     *slog.Logger

	// Кэш токена доступа
	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// New создаёт клиент к Keycloak Admin REST API.
// baseURL — базовый URL Keycloak (например, https://keycloak.kryukov.lan).
// realm — имя realm (например, easybuy).
// clientID, clientSecret — credentials для Client Credentials flow.
// httpClient — HTTP-клиент (может содержать TLS конфигурацию).
func New(baseURL, realm, clientID, clientSecret string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		logger:       logger.With(slog.String("component", "keycloak_client")),
	}
}

// --- Аутентификация ---

// tokenEndpoint возвращает URL endpoint'а получения токена.
func (c *Client) tokenEndpoint() string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", c.baseURL, c.realm)
}

// adminBaseURL возвращает базовый URL Admin REST API для realm.
func (c *Client) adminBaseURL() string {
	return fmt.Sprintf("%s/admin/realms/%s", c.baseURL, c.realm)
}

// getToken возвращает актуальный access token, обновляя при необходимости.
// Токен обновляется за 30 секунд до истечения.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Проверяем кэш: если токен валиден ещё 30 секунд — используем его
	if c.accessToken != "" && time.Now().Add(30*time.Second).Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	// Запрашиваем новый токен через Client Credentials flow
	token, err := c.requestToken(ctx, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	})
	if err != nil {
		return "", err
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	c.logger.Debug("Keycloak токен обновлён",
		slog.Time("expires_at", c.tokenExpiry),
	)

	return c.accessToken, nil
}

// invalidateToken сбрасывает кэшированный токен.
// Вызывается при ответе 401 от Admin REST API.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
}

// requestToken выполняет запрос токена с переданными параметрами grant.
func (c *Client) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint(), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &AuthError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &AuthError{
			Status: resp.StatusCode,
			Op:     "request",
			Err:    fmt.Errorf("тело ответа: %s", string(body)),
		}
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, &AuthError{Op: "decode", Err: err}
	}

	return &token, nil
}

// --- HTTP helpers ---

// doAuthorized выполняет HTTP-запрос к Admin REST API с авторизацией.
// При ответе 401 токен инвалидируется и запрос повторяется один раз
// с новым токеном.
func (c *Client) doAuthorized(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyData []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("сериализация тела запроса: %w", err)
		}
		bodyData = data
	}

	resp, err := c.doOnce(ctx, method, path, bodyData)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Токен отозван раньше expires_in: сбрасываем кэш и повторяем один раз
	resp.Body.Close()
	c.invalidateToken()
	c.logger.Debug("Keycloak вернул 401, повтор запроса с новым токеном",
		slog.String("method", method),
		slog.String("path", path),
	)

	resp, err = c.doOnce(ctx, method, path, bodyData)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &AuthError{
			Status: http.StatusUnauthorized,
			Op:     "authorize",
			Err:    fmt.Errorf("повторный запрос отклонён: %s", string(body)),
		}
	}

	return resp, nil
}

// doOnce выполняет один HTTP-запрос с текущим (или свежим) токеном.
func (c *Client) doOnce(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение токена: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	reqURL := c.adminBaseURL() + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// decodeResponse декодирует JSON ответ в target.
func decodeResponse(resp *http.Response, op string, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &DirectoryError{
			Status: resp.StatusCode,
			Op:     op,
			Err:    fmt.Errorf("тело ответа: %s", string(body)),
		}
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return &DirectoryError{Op: op, Err: fmt.Errorf("декодирование ответа: %w", err)}
		}
	}

	return nil
}

// checkResponse проверяет статус ответа (для запросов без тела ответа).
func checkResponse(resp *http.Response, op string, expectedStatus int) error {
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		body, _ := io.ReadAll(resp.Body)
		return &DirectoryError{
			Status: resp.StatusCode,
			Op:     op,
			Err:    fmt.Errorf("ожидался статус %d, тело ответа: %s", expectedStatus, string(body)),
		}
	}

	return nil
}

// --- Users API ---

// CreateUser создаёт пользователя realm с паролем и атрибутами.
// Пользователь создаётся включённым, email считается подтверждённым.
// Возвращает Keycloak ID созданного пользователя.
func (c *Client) CreateUser(ctx context.Context, user *KeycloakUser, password string) (string, error) {
	createReq := userCreateRequest{
		Username:      user.Username,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Enabled:       true,
		EmailVerified: true,
		Attributes:    user.Attributes,
	}
	if password != "" {
		createReq.Credentials = []userCredential{
			{Type: "password", Value: password, Temporary: false},
		}
	}

	resp, err := c.doAuthorized(ctx, http.MethodPost, "/users", createReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", &DirectoryError{
			Status: resp.StatusCode,
			Op:     "CreateUser",
			Err:    fmt.Errorf("тело ответа: %s", string(body)),
		}
	}

	// Keycloak возвращает Location header с ID созданного ресурса
	location := resp.Header.Get("Location")
	if location == "" {
		return "", &DirectoryError{Op: "CreateUser", Err: errors.New("отсутствует Location header в ответе")}
	}

	// Извлекаем ID из Location: .../users/{id}
	parts := strings.Split(location, "/")
	id := parts[len(parts)-1]

	c.logger.Info("пользователь создан в Keycloak",
		slog.String("username", user.Username),
		slog.String("id", id),
	)

	return id, nil
}

// ListUsers возвращает пользователей realm.
// username — фильтр (Keycloak ищет по подстроке); пустая строка — все пользователи.
func (c *Client) ListUsers(ctx context.Context, username string) ([]KeycloakUser, error) {
	path := "/users"
	if username != "" {
		path += "?username=" + url.QueryEscape(username)
	}

	resp, err := c.doAuthorized(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var users []KeycloakUser
	if err := decodeResponse(resp, "ListUsers", &users); err != nil {
		return nil, err
	}

	return users, nil
}

// FindByUsername возвращает пользователя с точным совпадением username.
// Keycloak фильтрует по подстроке, поэтому результат дополнительно
// сверяется по точному имени. Если совпадения нет — ErrUserNotFound.
func (c *Client) FindByUsername(ctx context.Context, username string) (*KeycloakUser, error) {
	users, err := c.ListUsers(ctx, username)
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}

	return nil, ErrUserNotFound
}

// DeleteUser удаляет пользователя по username.
// Если пользователь отсутствует — ErrUserNotFound (мягкий исход, а не сбой).
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	user, err := c.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	resp, err := c.doAuthorized(ctx, http.MethodDelete, "/users/"+user.ID, nil)
	if err != nil {
		return err
	}

	if err := checkResponse(resp, "DeleteUser", http.StatusNoContent); err != nil {
		return err
	}

	c.logger.Info("пользователь удалён из Keycloak",
		slog.String("username", username),
		slog.String("id", user.ID),
	)

	return nil
}

// ValidateLogin проверяет credentials пользователя через Password grant
// и возвращает выданный access token. Токен пользователя не кэшируется.
// Отклонённые credentials и сбои — *AuthError (различаются полем Status).
func (c *Client) ValidateLogin(ctx context.Context, username, password string) (string, error) {
	token, err := c.requestToken(ctx, url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"username":      {username},
		"password":      {password},
	})
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

// --- Realm API ---

// RealmInfo возвращает информацию о realm.
func (c *Client) RealmInfo(ctx context.Context) (*RealmRepresentation, error) {
	resp, err := c.doAuthorized(ctx, http.MethodGet, "", nil)
	if err != nil {
		return nil, err
	}

	var realm RealmRepresentation
	if err := decodeResponse(resp, "RealmInfo", &realm); err != nil {
		return nil, err
	}

	return &realm, nil
}

// --- Readiness checker ---

// CheckReady проверяет доступность Keycloak через realm info.
// Реализует handlers.ReadinessChecker.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	realm, err := c.RealmInfo(ctx)
	if err != nil {
		return "fail", fmt.Sprintf("Keycloak недоступен: %v", err)
	}

	if !realm.Enabled {
		return "degraded", fmt.Sprintf("Realm %s отключён", realm.Realm)
	}

	return "ok", fmt.Sprintf("Realm %s доступен", realm.Realm)
}
