package adminapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bucketfs/bucketfs/internal/logger"
	"github.com/bucketfs/bucketfs/pkg/registry"
)

// Server is the admin API's HTTP server. It is created stopped; call
// Start to begin serving.
type Server struct {
	server       *http.Server
	jwtService   *JWTService
	config       Config
	shutdownOnce sync.Once
}

// NewServer builds a Server from config and reg. config.Secret() must
// resolve to a string at least 32 bytes long.
func NewServer(config Config, reg *registry.Registry) (*Server, error) {
	config.applyDefaults()

	jwtService, err := NewJWTService(config.Secret(), config.JWT.TokenDuration)
	if err != nil {
		return nil, fmt.Errorf("adminapi: %w", err)
	}

	router := NewRouter(reg, jwtService)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		jwtService: jwtService,
		config:     config,
	}, nil
}

// IssueToken mints a bearer token for subject, for operators to hand to
// cmd/bucketfsctl or any other admin API caller.
func (s *Server) IssueToken(subject string) (string, time.Time, error) {
	return s.jwtService.IssueToken(subject)
}

// Start listens and serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("admin api listening", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("admin api shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("admin api server failed: %w", err)
	}
}

// Stop gracefully shuts the server down. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("admin api shutdown: %w", err)
			logger.Error("admin api shutdown error", "error", err)
		} else {
			logger.Info("admin api stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() int { return s.config.Port }
