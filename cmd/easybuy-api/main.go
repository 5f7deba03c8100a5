// Точка входа easybuy-api — backend интернет-магазина EasyBuy.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует Keycloak-клиент, сервисный слой и API handlers,
// запускает topologymetrics и HTTP-сервер с JWT middleware
// и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/easybuy/internal/api/handlers"
	"github.com/bigkaa/easybuy/internal/api/middleware"
	"github.com/bigkaa/easybuy/internal/config"
	"github.com/bigkaa/easybuy/internal/database"
	"github.com/bigkaa/easybuy/internal/keycloak"
	"github.com/bigkaa/easybuy/internal/repository"
	"github.com/bigkaa/easybuy/internal/server"
	"github.com/bigkaa/easybuy/internal/service"
)

// jwksRefreshInterval — интервал фонового обновления JWKS-ключей.
const jwksRefreshInterval = 5 * time.Minute

// jwtLeeway — допустимое отклонение времени при проверке JWT.
const jwtLeeway = 10 * time.Second

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("easybuy-api запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// Предупреждение о дефолтной группе topologymetrics
	if os.Getenv("EB_DEPHEALTH_GROUP") == "" {
		logger.Warn("EB_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL идёт через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Keycloak Admin API клиент
	kcClient := keycloak.New(
		cfg.KeycloakURL,
		cfg.KeycloakRealm,
		cfg.KeycloakClientID,
		cfg.KeycloakClientSecret,
		&http.Client{Timeout: cfg.KeycloakTimeout},
		logger,
	)
	logger.Info("Keycloak клиент создан",
		slog.String("url", cfg.KeycloakURL),
		slog.String("realm", cfg.KeycloakRealm),
	)

	// 6. Repositories
	productRepo := repository.NewProductRepository(pool)

	// 7. Кэш поиска товаров
	searchCache := service.NewSearchCache(cfg.SearchCacheSize, cfg.SearchCacheTTL)

	// 8. Services
	userSvc := service.NewUserService(kcClient, logger)
	productSvc := service.NewProductService(productRepo, searchCache, logger)

	// 9. Readiness checkers (PostgreSQL + Keycloak через Admin API)
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker, kcClient)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(healthHandler, userSvc, productSvc, logger)

	// 11. JWT middleware (может быть отключён для локальных запусков)
	var jwtAuth *middleware.JWTAuth
	if cfg.AuthEnabled {
		jwtAuth, err = middleware.NewJWTAuth(
			cfg.JWTJWKSURL,
			cfg.JWTIssuer,
			jwksRefreshInterval,
			jwtLeeway,
			logger,
		)
		if err != nil {
			logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("JWT middleware инициализирован",
			slog.String("jwks_url", cfg.JWTJWKSURL),
			slog.String("issuer", cfg.JWTIssuer),
			slog.String("admin_role", cfg.AdminRole),
		)
	} else {
		logger.Warn("JWT-проверка отключена (EB_AUTH_ENABLED=false)")
	}

	// 12. topologymetrics — мониторинг зависимостей (PostgreSQL + Keycloak)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"easybuy-api",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.JWTJWKSURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 13. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 14. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("easybuy-api остановлен")
}
