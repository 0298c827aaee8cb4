package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const shoppingListFilename = "shopping_list.txt"

type RecipeHandler struct {
	recipes       *service.RecipeService
	shopping      *service.ShoppingService
	authService   *service.AuthService
	createLimiter middleware.Limiter
	paginator     Paginator
	publicURL     string
	now           func() time.Time
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	shopping *service.ShoppingService,
	authService *service.AuthService,
	createLimiter middleware.Limiter,
	paginator Paginator,
	publicURL string,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:       recipes,
		shopping:      shopping,
		authService:   authService,
		createLimiter: createLimiter,
		paginator:     paginator,
		publicURL:     publicURL,
		now:           time.Now,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.RequireAuth(h.authService)
	optionalAuth := middleware.OptionalAuth(h.authService)

	create := []gin.HandlerFunc{requireAuth}
	if h.createLimiter != nil {
		create = append(create, middleware.RateLimitMiddleware(h.createLimiter))
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("/", optionalAuth, h.ListRecipes)
		recipes.POST("/", create...)
		recipes.GET("/download_shopping_cart/", requireAuth, h.DownloadShoppingCart)
		recipes.GET("/:id/", optionalAuth, h.GetRecipe)
		recipes.PUT("/:id/", requireAuth, h.UpdateRecipe)
		recipes.PATCH("/:id/", requireAuth, h.UpdateRecipe)
		recipes.DELETE("/:id/", requireAuth, h.DeleteRecipe)
		recipes.GET("/:id/get-link/", h.GetLink)
		recipes.POST("/:id/favorite/", requireAuth, h.addTo(service.Favorites))
		recipes.DELETE("/:id/favorite/", requireAuth, h.removeFrom(service.Favorites))
		recipes.POST("/:id/shopping_cart/", requireAuth, h.addTo(service.ShoppingCart))
		recipes.DELETE("/:id/shopping_cart/", requireAuth, h.removeFrom(service.ShoppingCart))
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, ok := h.paginator.Parse(c)
	if !ok {
		return
	}

	filter := types.RecipeFilter{
		AuthorID:         queryUint(c, "author"),
		IsFavorited:      queryBool(c, "is_favorited"),
		IsInShoppingCart: queryBool(c, "is_in_shopping_cart"),
	}
	recipes, total, err := h.recipes.List(c.Request.Context(), middleware.UserID(c), filter, page.Offset(), page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, total, recipes)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLink returns the short link that redirects to the recipe page
func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	exists, err := h.recipes.Exists(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !exists {
		respondError(c, service.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"short-link": fmt.Sprintf("%s/s/%d/", baseURL(c, h.publicURL), id)})
}

func (h *RecipeHandler) addTo(collection service.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		recipe, err := h.recipes.Add(c.Request.Context(), collection, middleware.UserID(c), id)
		if err != nil {
			if errors.Is(err, service.ErrAlreadyExists) {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("recipe is already in %s", collection)})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, recipe)
	}
}

func (h *RecipeHandler) removeFrom(collection service.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		if err := h.recipes.Remove(c.Request.Context(), collection, middleware.UserID(c), id); err != nil {
			if errors.Is(err, service.ErrNotPresent) {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("recipe is not in %s", collection)})
				return
			}
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DownloadShoppingCart sends the aggregated shopping list as a text attachment
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	report, err := h.shopping.Report(c.Request.Context(), middleware.UserID(c), h.now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, shoppingListFilename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}
