package main

import (
	"reserva-service/internal/auth"
	"reserva-service/internal/config"
	logsGet "reserva-service/internal/http-server/handlers/logs/get"
	resCancel "reserva-service/internal/http-server/handlers/reservations/cancel"
	resConfirm "reserva-service/internal/http-server/handlers/reservations/confirm"
	resCreate "reserva-service/internal/http-server/handlers/reservations/create"
	resGet "reserva-service/internal/http-server/handlers/reservations/get"
	resList "reserva-service/internal/http-server/handlers/reservations/list"
	roomCreate "reserva-service/internal/http-server/handlers/rooms/create"
	roomList "reserva-service/internal/http-server/handlers/rooms/list"
	roomUpdate "reserva-service/internal/http-server/handlers/rooms/update"
	slotsFree "reserva-service/internal/http-server/handlers/slots/free"
	"reserva-service/internal/lock"
	svc "reserva-service/internal/service"
	"reserva-service/internal/storage/postgres"
	slogpretty "reserva-service/pkg/handlers/slogPretty"
	mwLogger "reserva-service/pkg/middleware/mwLogger"
	"reserva-service/pkg/sl"

	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(storage, locker)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Public: the room grid and slot availability need no credential.
	router.Get("/rooms", roomList.New(log, service))
	router.Post("/reservations/free/{roomId}", slotsFree.New(log, service))

	router.Group(func(r chi.Router) {
		r.Use(auth.Required(log, cfg.JWTSecret))

		// Rooms (admin-gated in the service layer)
		r.Post("/rooms", roomCreate.New(log, service))
		r.Put("/rooms/{id}", roomUpdate.New(log, service))

		// Reservations
		r.Post("/reservations", resCreate.New(log, service))
		r.Get("/reservations", resList.New(log, service))
		r.Get("/reservations/{id}", resGet.New(log, service))
		r.Post("/reservations/{id}/confirm", resConfirm.New(log, service))
		r.Post("/reservations/{id}/cancel", resCancel.New(log, service))

		// Audit trail
		r.Get("/logs", logsGet.New(log, service))
	})

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
