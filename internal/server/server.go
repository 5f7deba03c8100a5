// Пакет server — HTTP-сервер easybuy-api с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/easybuy/internal/api/handlers"
	"github.com/bigkaa/easybuy/internal/api/middleware"
	"github.com/bigkaa/easybuy/internal/config"
)

// Server — HTTP-сервер easybuy-api.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
// jwtAuth может быть nil (EB_AUTH_ENABLED=false) — тогда проверка
// токенов и ролей не выполняется.
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware)
	router.Use(middleware.RequestLogger(logger))

	// Health и metrics всегда публичные — их опрашивает Kubernetes.
	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	// passthrough — заглушка middleware при выключенной авторизации.
	passthrough := func(next http.Handler) http.Handler { return next }

	authn := passthrough
	adminOnly := passthrough
	if jwtAuth != nil {
		authn = jwtAuth.Middleware()
		adminOnly = middleware.RequireRole(cfg.AdminRole)
	}

	// Административные маршруты: валидный JWT + роль администратора.
	// loginvalidation — публичный: это и есть вход в систему.
	router.Route("/easybuy/admin", func(r chi.Router) {
		r.Post("/loginvalidation", handler.LoginValidation)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Use(adminOnly)

			r.Post("/adduser", handler.AddUser)
			r.Get("/getusers", handler.GetUsers)
			r.Get("/getuser", handler.GetUser)
			r.Delete("/delete/user", handler.DeleteUser)

			r.Post("/addproduct", handler.AddProduct)
			r.Put("/updateproduct/{id}", handler.UpdateProduct)
			r.Delete("/deleteproduct/{id}", handler.DeleteProduct)
		})
	})

	// Пользовательские маршруты: достаточно валидного JWT.
	router.Route("/easybuy/user", func(r chi.Router) {
		r.Use(authn)

		r.Get("/getproducts", handler.GetProducts)
		r.Get("/searchproducts", handler.SearchProducts)
		r.Get("/product/{id}", handler.GetProduct)
		r.Get("/productlist", handler.ProductList)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Handler возвращает корневой http.Handler (для httptest).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
