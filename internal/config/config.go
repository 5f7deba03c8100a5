// Пакет config — загрузка и валидация конфигурации easybuy-api
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации easybuy-api.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Keycloak ---

	// URL Keycloak (например, https://keycloak.kryukov.lan)
	KeycloakURL string
	// Имя realm в Keycloak
	KeycloakRealm string
	// Client ID для доступа к Keycloak Admin API
	KeycloakClientID string
	// Client Secret для доступа к Keycloak Admin API
	KeycloakClientSecret string
	// Таймаут HTTP-клиента Keycloak
	KeycloakTimeout time.Duration

	// --- JWT (входящая авторизация) ---

	// Включена ли JWT-проверка входящих запросов
	AuthEnabled bool
	// Issuer JWT (авто-вычисляется из KeycloakURL, если не задан)
	JWTIssuer string
	// URL JWKS endpoint (авто-вычисляется из KeycloakURL, если не задан)
	JWTJWKSURL string
	// Realm-роль, требуемая для административных endpoints
	AdminRole string

	// --- Кэш поиска товаров ---

	// Максимальное количество записей в LRU-кэше поиска
	SearchCacheSize int
	// TTL записи кэша поиска
	SearchCacheTTL time.Duration

	// --- Мониторинг зависимостей ---

	// Имя группы topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// EB_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("EB_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("EB_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("EB_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// EB_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("EB_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("EB_LOG_LEVEL: %w", err)
	}

	// EB_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("EB_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("EB_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// EB_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("EB_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EB_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	// EB_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("EB_DB_HOST")
	if err != nil {
		return nil, err
	}

	// EB_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("EB_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("EB_DB_PORT: %w", err)
	}

	// EB_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("EB_DB_NAME")
	if err != nil {
		return nil, err
	}

	// EB_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("EB_DB_USER")
	if err != nil {
		return nil, err
	}

	// EB_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("EB_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// EB_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("EB_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("EB_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Keycloak ---

	// EB_KEYCLOAK_URL — обязательный
	cfg.KeycloakURL, err = getEnvRequired("EB_KEYCLOAK_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.KeycloakURL = strings.TrimRight(cfg.KeycloakURL, "/")

	// EB_KEYCLOAK_REALM — realm (по умолчанию easybuy)
	cfg.KeycloakRealm = getEnvDefault("EB_KEYCLOAK_REALM", "easybuy")

	// EB_KEYCLOAK_CLIENT_ID — обязательный
	cfg.KeycloakClientID, err = getEnvRequired("EB_KEYCLOAK_CLIENT_ID")
	if err != nil {
		return nil, err
	}

	// EB_KEYCLOAK_CLIENT_SECRET — обязательный
	cfg.KeycloakClientSecret, err = getEnvRequired("EB_KEYCLOAK_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}

	// EB_KEYCLOAK_TIMEOUT — таймаут HTTP-клиента Keycloak (по умолчанию 30s)
	cfg.KeycloakTimeout, err = getEnvDuration("EB_KEYCLOAK_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EB_KEYCLOAK_TIMEOUT: %w", err)
	}

	// --- JWT ---

	// EB_AUTH_ENABLED — JWT-проверка входящих запросов (по умолчанию true)
	cfg.AuthEnabled, err = getEnvBool("EB_AUTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("EB_AUTH_ENABLED: %w", err)
	}

	// EB_JWT_ISSUER — авто-вычисляется из KeycloakURL, если не задан
	cfg.JWTIssuer = getEnvDefault("EB_JWT_ISSUER",
		fmt.Sprintf("%s/realms/%s", cfg.KeycloakURL, cfg.KeycloakRealm))

	// EB_JWT_JWKS_URL — авто-вычисляется из KeycloakURL, если не задан
	cfg.JWTJWKSURL = getEnvDefault("EB_JWT_JWKS_URL",
		fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", cfg.KeycloakURL, cfg.KeycloakRealm))

	// EB_ADMIN_ROLE — роль администратора (по умолчанию easybuy-admin)
	cfg.AdminRole = getEnvDefault("EB_ADMIN_ROLE", "easybuy-admin")

	// --- Кэш поиска товаров ---

	// EB_SEARCH_CACHE_SIZE — размер кэша (по умолчанию 256)
	cfg.SearchCacheSize, err = getEnvInt("EB_SEARCH_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("EB_SEARCH_CACHE_SIZE: %w", err)
	}
	if cfg.SearchCacheSize < 1 || cfg.SearchCacheSize > 100000 {
		return nil, fmt.Errorf("EB_SEARCH_CACHE_SIZE: значение %d вне допустимого диапазона 1-100000", cfg.SearchCacheSize)
	}

	// EB_SEARCH_CACHE_TTL — TTL записи кэша (по умолчанию 1m)
	cfg.SearchCacheTTL, err = getEnvDuration("EB_SEARCH_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("EB_SEARCH_CACHE_TTL: %w", err)
	}

	// --- Мониторинг зависимостей ---

	// EB_DEPHEALTH_GROUP — имя группы topologymetrics (по умолчанию easybuy)
	cfg.DephealthGroup = getEnvDefault("EB_DEPHEALTH_GROUP", "easybuy")

	// EB_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("EB_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EB_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (для лейблов topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
