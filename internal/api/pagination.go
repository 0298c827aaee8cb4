package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

const maxPageSize = 100

// pageRequest is the page/limit pair of a list request
type pageRequest struct {
	Page  int
	Limit int
}

func (p pageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Paginator reads ?page=&limit= and builds {count,next,previous,results}
type Paginator struct {
	DefaultSize int
}

// Parse answers 404 for a malformed page number
func (p Paginator) Parse(c *gin.Context) (pageRequest, bool) {
	req := pageRequest{Page: 1, Limit: p.DefaultSize}
	if req.Limit <= 0 {
		req.Limit = 6
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid page"})
			return req, false
		}
		req.Page = page
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			req.Limit = min(limit, maxPageSize)
		}
	}
	return req, true
}

// respondPage writes the page, or 404 when a page past the end was requested
func respondPage[T any](c *gin.Context, req pageRequest, total int64, results []T) {
	if req.Page > 1 && int64(req.Offset()) >= total {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid page"})
		return
	}
	if results == nil {
		results = []T{}
	}

	page := types.Page[T]{Count: total, Results: results}
	if int64(req.Page*req.Limit) < total {
		next := pageURL(c, req.Page+1)
		page.Next = &next
	}
	if req.Page > 1 {
		prev := pageURL(c, req.Page-1)
		page.Previous = &prev
	}
	c.JSON(http.StatusOK, page)
}

func pageURL(c *gin.Context, page int) string {
	u := *c.Request.URL
	q := u.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	u.Scheme = requestScheme(c)
	u.Host = c.Request.Host
	return u.String()
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

// baseURL is the public origin of the service, derived from the request unless configured
func baseURL(c *gin.Context, publicURL string) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/")
	}
	return requestScheme(c) + "://" + c.Request.Host
}
