package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger *slog.Logger
	ping   PingHandler
	stats  StatsHandler

	allowedOrigins []string
}

func New(logger *slog.Logger, allowedOrigins []string, ping PingHandler, stats StatsHandler) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		ping:   ping,
		stats:  stats,

		allowedOrigins: allowedOrigins,
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.ping.PingHandler)
	mux.HandleFunc("GET /stats", that.stats.StatsHandler)

	return cors.New(cors.Options{
		AllowedOrigins: that.allowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	}).Handler(mux)
}

// Start - serves HTTP on port until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
