package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/opencase-io/opencase/internal/config"
)

// New builds an http.Server from the server configuration.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Shutdown drains the server within the write timeout.
func Shutdown(srv *http.Server, cfg config.ServerConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
