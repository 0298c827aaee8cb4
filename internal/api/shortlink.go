package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
)

type ShortLinkHandler struct {
	recipes *service.RecipeService
}

func NewShortLinkHandler(recipes *service.RecipeService) *ShortLinkHandler {
	return &ShortLinkHandler{recipes: recipes}
}

func (h *ShortLinkHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/s/:id/", h.Redirect)
}

// Redirect sends /s/{id}/ to the frontend recipe page
func (h *ShortLinkHandler) Redirect(c *gin.Context) {
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

	c.Redirect(http.StatusFound, fmt.Sprintf("/recipes/%d", id))
}
