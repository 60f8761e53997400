// Package server wires the focushub services into one HTTP handler and
// runs it until the context is cancelled.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/vjfocus/focushub/pkg/focushub/auth"
	"github.com/vjfocus/focushub/pkg/focushub/config"
	"github.com/vjfocus/focushub/pkg/focushub/friends"
	"github.com/vjfocus/focushub/pkg/focushub/groups"
	"github.com/vjfocus/focushub/pkg/focushub/logging"
	"github.com/vjfocus/focushub/pkg/focushub/meetings"
	"github.com/vjfocus/focushub/pkg/focushub/profiles"
	"github.com/vjfocus/focushub/pkg/focushub/visibility"
)

// Server is the focushub HTTP server
type Server struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	handler http.Handler
}

// New builds the router and every service on the given store handle
func New(cfg *config.Config, db *gorm.DB, log logrus.FieldLogger) *Server {
	engine := newRouter(cfg, db, log)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.HTTP.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return &Server{
		cfg:     cfg,
		log:     log,
		handler: c.Handler(engine),
	}
}

func newRouter(cfg *config.Config, db *gorm.DB, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(logging.Middleware(log, auth.ContextKeyUserID), gin.Recovery())

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "focushub",
			"version": cfg.App.Version,
		})
	}
	r.GET("/health", health)

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	ledger := friends.NewLedger(db, log)
	registry := groups.NewRegistry(db, log)
	coordinator := meetings.NewCoordinator(db, registry, log, cfg.Meetings.MeetBaseURL)
	profileService := profiles.NewService(db, visibility.NewPolicy(ledger), log)

	api := r.Group("/api")
	{
		api.GET("/health", health)

		// Auth routes (public)
		authHandler := auth.NewHandler(db, tokens, log, cfg.IsProduction())
		authHandler.RegisterRoutes(api.Group("/auth"))

		requireAuth := auth.AuthMiddleware(db, tokens)

		// Social routes: friends, profiles, groups
		social := api.Group("/social", requireAuth)
		friends.NewHandler(ledger).RegisterRoutes(social)
		profiles.NewHandler(profileService).RegisterRoutes(social)
		groups.NewHandler(registry).RegisterRoutes(social)

		// Meeting routes
		meetings.NewHandler(coordinator).RegisterRoutes(api.Group("/meetings", requireAuth))
	}

	return r
}

// Handler returns the CORS-wrapped router
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured port until ctx is cancelled, then drains
// in-flight requests within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.HTTP.Port,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("starting focushub server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down focushub server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
