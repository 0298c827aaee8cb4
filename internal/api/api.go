package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Deps is everything the HTTP layer needs
type Deps struct {
	DB            *gorm.DB
	Redis         *redis.Client
	Auth          *service.AuthService
	Users         *service.UserService
	Subscriptions *service.SubscriptionService
	Ingredients   *service.IngredientService
	Recipes       *service.RecipeService
	Shopping      *service.ShoppingService
	Admin         *service.AdminService
	CreateLimiter middleware.Limiter
	PageSize      int
	PublicURL     string
	MediaDir      string
	MediaURL      string
}

// SetupAPI registers every route on router
func SetupAPI(router *gin.Engine, deps Deps) {
	paginator := Paginator{DefaultSize: deps.PageSize}

	NewHealthHandler(deps.DB, deps.Redis).RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	NewShortLinkHandler(deps.Recipes).RegisterRoutes(router)
	if deps.MediaDir != "" && deps.MediaURL != "" {
		router.Static(deps.MediaURL, deps.MediaDir)
	}

	v1 := router.Group("/api")
	{
		NewAuthHandler(deps.Auth).RegisterRoutes(v1)
		NewUserHandler(deps.Users, deps.Subscriptions, deps.Auth, paginator).RegisterRoutes(v1)
		NewIngredientHandler(deps.Ingredients).RegisterRoutes(v1)
		NewRecipeHandler(deps.Recipes, deps.Shopping, deps.Auth, deps.CreateLimiter, paginator, deps.PublicURL).RegisterRoutes(v1)
		NewAdminHandler(deps.Admin, deps.Auth, paginator).RegisterRoutes(v1)
	}
}
