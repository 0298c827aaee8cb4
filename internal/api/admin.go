package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// AdminHandler exposes staff-only listings with derived filters
type AdminHandler struct {
	admin       *service.AdminService
	authService *service.AuthService
	paginator   Paginator
}

func NewAdminHandler(admin *service.AdminService, authService *service.AuthService, paginator Paginator) *AdminHandler {
	return &AdminHandler{admin: admin, authService: authService, paginator: paginator}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	admin.Use(middleware.RequireAuth(h.authService), h.requireStaff)
	{
		admin.GET("/recipes/", h.ListRecipes)
		admin.GET("/recipes/cooking-time-buckets/", h.CookingTimeBuckets)
		admin.GET("/ingredients/", h.ListIngredients)
		admin.GET("/users/", h.ListUsers)
	}
}

func (h *AdminHandler) requireStaff(c *gin.Context) {
	user, err := h.authService.CurrentUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	if !user.IsStaff {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()})
		return
	}
	c.Next()
}

func (h *AdminHandler) ListRecipes(c *gin.Context) {
	page, ok := h.paginator.Parse(c)
	if !ok {
		return
	}

	filter := types.AdminRecipeFilter{
		CookingTimeRange: c.Query("cooking_time_range"),
		AuthorID:         queryUint(c, "author"),
		Search:           c.Query("search"),
	}
	rows, total, err := h.admin.Recipes(c.Request.Context(), filter, page.Offset(), page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, total, rows)
}

func (h *AdminHandler) CookingTimeBuckets(c *gin.Context) {
	buckets, err := h.admin.CookingTimeBuckets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

func (h *AdminHandler) ListIngredients(c *gin.Context) {
	page, ok := h.paginator.Parse(c)
	if !ok {
		return
	}

	filter := types.AdminIngredientFilter{
		HasRecipes:      c.Query("has_recipes"),
		MeasurementUnit: c.Query("measurement_unit"),
		Search:          c.Query("search"),
	}
	rows, total, err := h.admin.Ingredients(c.Request.Context(), filter, page.Offset(), page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, total, rows)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, ok := h.paginator.Parse(c)
	if !ok {
		return
	}

	filter := types.AdminUserFilter{
		HasRecipes:       c.Query("has_recipes"),
		HasSubscriptions: c.Query("has_subscriptions"),
		HasFollowers:     c.Query("has_followers"),
		Search:           c.Query("search"),
	}
	rows, total, err := h.admin.Users(c.Request.Context(), filter, page.Offset(), page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, total, rows)
}
