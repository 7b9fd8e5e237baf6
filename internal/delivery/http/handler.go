package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pricehunt/backend/internal/domain"
	"github.com/pricehunt/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searchService *usecase.SearchService
}

// NewHandler creates a new HTTP handler
func NewHandler(searchService *usecase.SearchService) *Handler {
	return &Handler{
		searchService: searchService,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricehunt-backend",
		"version": "1.0.0",
	})
}

// SearchProducts aggregates offers for a product query across all
// configured sources. Empty results are a 200 with empty buckets; the only
// client error is a malformed query.
func (h *Handler) SearchProducts(c *gin.Context) {
	if h.searchService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Search service not configured",
		})
		return
	}

	var query domain.ProductQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: product name is required",
		})
		return
	}

	result, err := h.searchService.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: product name is required",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SearchSimilarProducts returns products resembling a product name, with a
// lower match bar than the main search. Optional query parameters: limit
// (result cap) and category.
func (h *Handler) SearchSimilarProducts(c *gin.Context) {
	if h.searchService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Search service not configured",
		})
		return
	}

	name := c.Param("productName")

	result, err := h.searchService.FindSimilar(c.Request.Context(), name, c.Query("category"), limitParam(c))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: product name is required",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Similar products search failed",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBestDeals returns the cheapest in-stock offers across all sources,
// optionally narrowed by category
func (h *Handler) GetBestDeals(c *gin.Context) {
	if h.searchService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Search service not configured",
		})
		return
	}

	result, err := h.searchService.BestDeals(c.Request.Context(), c.Query("category"), limitParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Best deals lookup failed",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// limitParam reads the optional "limit" query parameter; anything absent or
// unparseable is zero, which the service replaces with its default
func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}

// GetSearchResult returns a previously produced aggregation result by its
// query ID, until the cache entry expires
func (h *Handler) GetSearchResult(c *gin.Context) {
	if h.searchService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Search service not configured",
		})
		return
	}

	queryID := c.Param("queryId")

	result, err := h.searchService.Lookup(c.Request.Context(), queryID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No result for query ID",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
