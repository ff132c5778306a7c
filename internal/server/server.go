package server

import (
	"github.com/gin-gonic/gin"

	"github.com/dmarceau/cartwise/internal/bundle"
	"github.com/dmarceau/cartwise/internal/cache"
	"github.com/dmarceau/cartwise/internal/database"
	"github.com/dmarceau/cartwise/internal/recommend"
	"github.com/dmarceau/cartwise/internal/repository"
)

type Server struct {
	router          *gin.Engine
	db              *database.DB
	store           *cache.Store
	resolver        *recommend.Resolver
	recommendations *recommend.RecommendationService
	trending        *recommend.TrendingService
	bundles         *bundle.Service
	chatQueries     repository.ChatQueries
}

// NewServer creates a new server instance
func NewServer(
	db *database.DB,
	store *cache.Store,
	resolver *recommend.Resolver,
	recommendations *recommend.RecommendationService,
	trending *recommend.TrendingService,
	bundles *bundle.Service,
	chatQueries repository.ChatQueries,
) *Server {
	router := gin.Default()

	server := &Server{
		router:          router,
		db:              db,
		store:           store,
		resolver:        resolver,
		recommendations: recommendations,
		trending:        trending,
		bundles:         bundles,
		chatQueries:     chatQueries,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.healthCheck)

		api.POST("/chatbot", s.chatbot)
		api.GET("/chatbot/analytics", s.chatbotAnalytics)

		api.GET("/products/bundles", s.listBundles)
		api.POST("/products/bundles", s.createBundle)
		api.GET("/products/trending", s.listTrending)

		api.GET("/recommendations", s.listRecommendations)
		api.GET("/recommendations/smart", s.listSmartRecommendations)
	}
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
