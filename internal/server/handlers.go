package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/bundle"
	"github.com/dmarceau/cartwise/internal/recommend"
)

// userID parses the optional X-User-ID header. Malformed ids are
// treated as anonymous rather than rejected.
func userID(c *gin.Context) *primitive.ObjectID {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil
	}
	return &id
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// healthCheck endpoint for monitoring
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"error":  "database connection failed",
		})
		return
	}

	// Cache loss degrades to direct reads, so it never fails health.
	cacheStatus := "ok"
	if !s.store.Healthy(c.Request.Context()) {
		cacheStatus = "unavailable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "cartwise",
		"version": "0.1.0",
		"cache":   cacheStatus,
	})
}

type chatbotRequest struct {
	Query string `json:"query"`
}

func (s *Server) chatbot(c *gin.Context) {
	var req chatbotRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Query is required"})
		return
	}

	reply, err := s.resolver.Respond(c.Request.Context(), req.Query, userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"response": reply,
	})
}

func analyticsWindow(period string) time.Duration {
	switch period {
	case "day":
		return 24 * time.Hour
	case "month":
		return 30 * 24 * time.Hour
	case "year":
		return 365 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

func (s *Server) chatbotAnalytics(c *gin.Context) {
	period := c.DefaultQuery("period", "week")
	since := time.Now().Add(-analyticsWindow(period))
	ctx := c.Request.Context()

	total, err := s.chatQueries.CountSince(ctx, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	intents, err := s.chatQueries.CountByIntent(ctx, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	responseTypes, err := s.chatQueries.CountByResponseType(ctx, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	commonQueries, err := s.chatQueries.TopQueries(ctx, since, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	topProducts, err := s.chatQueries.TopProducts(ctx, since, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	queriesByTime, err := s.chatQueries.QueriesByHour(ctx, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"analytics": gin.H{
			"totalQueries":             total,
			"intentDistribution":       intents,
			"responseTypeDistribution": responseTypes,
			"commonQueries":            commonQueries,
			"topProducts":              topProducts,
			"queriesByTime":            queriesByTime,
			"period":                   period,
		},
	})
}

func (s *Server) listBundles(c *gin.Context) {
	q := bundle.Query{Limit: intQuery(c, "limit", 3)}

	if raw := c.Query("productId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product id"})
			return
		}
		q.Product = &id
	}
	q.Category = c.Query("category")

	bundles, err := s.bundles.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bundles": bundles,
	})
}

type createBundleRequest struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	MainProductID      string   `json:"mainProductId"`
	RelatedProductIDs  []string `json:"relatedProductIds"`
	DiscountPercentage float64  `json:"discountPercentage"`
}

func (s *Server) createBundle(c *gin.Context) {
	var req createBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.MainProductID == "" || len(req.RelatedProductIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid bundle data. Required fields: name, mainProductId, relatedProductIds",
		})
		return
	}

	mainID, err := primitive.ObjectIDFromHex(req.MainProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product id"})
		return
	}

	relatedIDs := make([]primitive.ObjectID, 0, len(req.RelatedProductIDs))
	for _, raw := range req.RelatedProductIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product id"})
			return
		}
		relatedIDs = append(relatedIDs, id)
	}

	created, err := s.bundles.Create(c.Request.Context(), bundle.CreateRequest{
		Name:               req.Name,
		Description:        req.Description,
		MainProduct:        mainID,
		RelatedProducts:    relatedIDs,
		DiscountPercentage: req.DiscountPercentage,
	})
	if err != nil {
		switch {
		case errors.Is(err, bundle.ErrMainProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Main product not found"})
		case errors.Is(err, bundle.ErrRelatedProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "One or more related products not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"bundle":  created,
	})
}

func (s *Server) listTrending(c *gin.Context) {
	category := c.Query("category")
	timeframe := c.DefaultQuery("timeframe", recommend.TimeframeWeek)
	limit := intQuery(c, "limit", 10)

	products, err := s.trending.Trending(c.Request.Context(), category, timeframe, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"timeframe": timeframe,
		"products":  products,
	})
}

func (s *Server) listRecommendations(c *gin.Context) {
	kind := c.DefaultQuery("type", recommend.KindRecommended)

	params := recommend.Params{
		User:  userID(c),
		Limit: intQuery(c, "limit", 8),
	}

	if raw := c.Query("productId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product id"})
			return
		}
		params.Product = &id
	}

	if raw := c.Query("recentlyViewed"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := primitive.ObjectIDFromHex(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			params.RecentlyViewed = append(params.RecentlyViewed, id)
		}
	}

	products, err := s.recommendations.Recommend(c.Request.Context(), kind, params)
	if err != nil {
		if errors.Is(err, recommend.ErrInvalidKind) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid recommendation type"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"type":            kind,
		"recommendations": products,
	})
}

// listSmartRecommendations picks the strongest available strategy:
// collaborative for a known user, item-based around a product,
// trending otherwise. A known user carries more signal than a product
// anchor, so the user branch wins when both are present.
func (s *Server) listSmartRecommendations(c *gin.Context) {
	params := recommend.Params{
		User:  userID(c),
		Limit: intQuery(c, "limit", 8),
	}

	if raw := c.Query("productId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product id"})
			return
		}
		params.Product = &id
	}

	kind := recommend.KindSmartTrending
	recommendationType := "trending"
	switch {
	case params.User != nil:
		kind = recommend.KindSmartCollaborative
		recommendationType = "collaborative"
	case params.Product != nil:
		kind = recommend.KindSmartItemBased
		recommendationType = "item-based"
	}

	products, err := s.recommendations.Recommend(c.Request.Context(), kind, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"recommendationType": recommendationType,
		"recommendations":    products,
	})
}
