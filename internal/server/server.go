package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	logger zerolog.Logger
}

// New wires services and routes. redisClient and images may be nil: token revocation and rate
// limiting then stay in process and images go to the local media directory.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images service.ImageStore, log zerolog.Logger) *Server {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.Recovery(log),
		middleware.RequestLogger(log),
		middleware.Metrics(),
		middleware.CORS(cfg.AllowedOrigins()),
	)

	var revoked service.RevocationStore = service.NewMemoryRevocationStore()
	if redisClient != nil {
		revoked = service.NewRedisRevocationStore(redisClient)
	}

	mediaDir := ""
	if images == nil {
		images = service.NewLocalImageStore(cfg.MediaDir, cfg.MediaURL)
		mediaDir = cfg.MediaDir
	}

	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, revoked)
	api.SetupAPI(router, api.Deps{
		DB:            db,
		Redis:         redisClient,
		Auth:          authService,
		Users:         service.NewUserService(db, images),
		Subscriptions: service.NewSubscriptionService(db),
		Ingredients:   service.NewIngredientService(db),
		Recipes:       service.NewRecipeService(db, images),
		Shopping:      service.NewShoppingService(db),
		Admin:         service.NewAdminService(db),
		CreateLimiter: middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreateLimit, cfg.RecipeCreateWindow),
		PageSize:      cfg.PageSize,
		PublicURL:     cfg.PublicURL,
		MediaDir:      mediaDir,
		MediaURL:      cfg.MediaURL,
	})

	return &Server{
		router: router,
		db:     db,
		logger: log,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
