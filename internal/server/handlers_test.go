package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/cache"
	"github.com/dmarceau/cartwise/internal/models"
	"github.com/dmarceau/cartwise/internal/recommend"
	"github.com/dmarceau/cartwise/internal/repository"
)

// noopBackend satisfies cache.Backend without storing anything, so
// validation paths can be exercised without Redis.
type noopBackend struct{}

func (noopBackend) Get(ctx context.Context, key string) (string, bool, error) { return "", false, nil }
func (noopBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}
func (noopBackend) Keys(ctx context.Context, pattern string) ([]string, error) { return nil, nil }
func (noopBackend) Delete(ctx context.Context, keys ...string) (int64, error)  { return 0, nil }
func (noopBackend) Incr(ctx context.Context, key string) (int64, error)        { return 1, nil }
func (noopBackend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}
func (noopBackend) ZIncrBy(ctx context.Context, key, member string, delta float64) error {
	return nil
}
func (noopBackend) ZTop(ctx context.Context, key string, count int64) ([]string, error) {
	return nil, nil
}
func (noopBackend) Ping(ctx context.Context) error { return nil }

// emptyProducts and emptyOrders satisfy the repository interfaces over
// an empty store, so handler dispatch can run end to end.
type emptyProducts struct{}

func (emptyProducts) Find(ctx context.Context, filter repository.ProductFilter, sort repository.Sort, limit int) ([]models.Product, error) {
	return nil, nil
}
func (emptyProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return nil, nil
}
func (emptyProducts) FindRanked(ctx context.Context, ids []primitive.ObjectID, filter repository.ProductFilter, limit int) ([]models.Product, error) {
	return nil, nil
}
func (emptyProducts) TextSearch(ctx context.Context, terms string, limit int) ([]models.Product, error) {
	return nil, nil
}
func (emptyProducts) FuzzySearch(ctx context.Context, terms string, limit int) ([]models.Product, error) {
	return nil, nil
}
func (emptyProducts) SearchNames(ctx context.Context, names []string, limit int) ([]models.Product, error) {
	return nil, nil
}
func (emptyProducts) Count(ctx context.Context, filter repository.ProductFilter) (int64, error) {
	return 0, nil
}
func (emptyProducts) Insert(ctx context.Context, products ...models.Product) error { return nil }

type emptyOrders struct{}

func (emptyOrders) FindSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	return nil, nil
}
func (emptyOrders) FindByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	return nil, nil
}
func (emptyOrders) FindByUsers(ctx context.Context, users []primitive.ObjectID) ([]models.Order, error) {
	return nil, nil
}
func (emptyOrders) FindContainingProduct(ctx context.Context, product primitive.ObjectID, excludeUser *primitive.ObjectID) ([]models.Order, error) {
	return nil, nil
}
func (emptyOrders) FindContainingAny(ctx context.Context, products []primitive.ObjectID, excludeUser primitive.ObjectID) ([]models.Order, error) {
	return nil, nil
}
func (emptyOrders) Insert(ctx context.Context, orders ...models.Order) error { return nil }

// stubAnalytics returns canned aggregation rows.
type stubAnalytics struct{}

func (stubAnalytics) Insert(ctx context.Context, query *models.ChatQuery) error { return nil }
func (stubAnalytics) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return 4, nil
}
func (stubAnalytics) CountByIntent(ctx context.Context, since time.Time) ([]repository.IntentCount, error) {
	return []repository.IntentCount{{Intent: "gift", Count: 3}}, nil
}
func (stubAnalytics) CountByResponseType(ctx context.Context, since time.Time) ([]repository.ResponseTypeCount, error) {
	return []repository.ResponseTypeCount{{ResponseType: "product_list", Count: 4}}, nil
}
func (stubAnalytics) TopQueries(ctx context.Context, since time.Time, limit int) ([]repository.QueryCount, error) {
	return []repository.QueryCount{{Query: "gift for mom", Count: 2}}, nil
}
func (stubAnalytics) TopProducts(ctx context.Context, since time.Time, limit int) ([]repository.ProductCount, error) {
	return []repository.ProductCount{{Product: primitive.NewObjectID(), Count: 2, Name: "Building Blocks", Category: "toys"}}, nil
}
func (stubAnalytics) QueriesByHour(ctx context.Context, since time.Time) ([]repository.HourCount, error) {
	return []repository.HourCount{{Year: 2026, Month: 8, Day: 30, Hour: 10, Count: 4}}, nil
}

// validationServer wires only what the request-validation paths touch.
func validationServer() *Server {
	gin.SetMode(gin.TestMode)
	store := cache.NewStore(noopBackend{})
	return NewServer(
		nil,
		store,
		nil,
		recommend.NewRecommendationService(nil, nil, store),
		nil,
		nil,
		nil,
	)
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestChatbotRejectsEmptyQuery(t *testing.T) {
	s := validationServer()

	w := doRequest(s, http.MethodPost, "/api/chatbot", []byte(`{"query": "  "}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Query is required")

	w = doRequest(s, http.MethodPost, "/api/chatbot", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBundlesRejectsBadProductID(t *testing.T) {
	s := validationServer()

	w := doRequest(s, http.MethodGet, "/api/products/bundles?productId=not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid product id")
}

func TestCreateBundleRejectsIncompleteBody(t *testing.T) {
	s := validationServer()

	w := doRequest(s, http.MethodPost, "/api/products/bundles", []byte(`{"name": "Only a name"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Required fields")
}

func TestRecommendationsRejectInvalidType(t *testing.T) {
	s := validationServer()

	w := doRequest(s, http.MethodGet, "/api/recommendations?type=astrology", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid recommendation type")
}

func TestRecommendationsRejectBadProductID(t *testing.T) {
	s := validationServer()

	w := doRequest(s, http.MethodGet, "/api/recommendations?productId=zzz", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSmartRecommendationsRejectBadProductID(t *testing.T) {
	s := validationServer()

	w := doRequest(s, http.MethodGet, "/api/recommendations/smart?productId=zzz", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSmartRecommendationsPreferUserOverProduct(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := cache.NewStore(noopBackend{})
	s := NewServer(
		nil,
		store,
		nil,
		recommend.NewRecommendationService(emptyProducts{}, emptyOrders{}, store),
		nil,
		nil,
		nil,
	)

	// A known user wins over a product anchor.
	req := httptest.NewRequest(http.MethodGet, "/api/recommendations/smart?productId="+primitive.NewObjectID().Hex(), nil)
	req.Header.Set("X-User-ID", primitive.NewObjectID().Hex())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recommendationType":"collaborative"`)

	// Anonymous with a product anchor gets item-based filtering.
	w = doRequest(s, http.MethodGet, "/api/recommendations/smart?productId="+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recommendationType":"item-based"`)

	// Neither falls back to trending.
	w = doRequest(s, http.MethodGet, "/api/recommendations/smart", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recommendationType":"trending"`)
}

func TestChatbotAnalyticsAggregates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := cache.NewStore(noopBackend{})
	s := NewServer(
		nil,
		store,
		nil,
		recommend.NewRecommendationService(nil, nil, store),
		nil,
		nil,
		stubAnalytics{},
	)

	w := doRequest(s, http.MethodGet, "/api/chatbot/analytics?period=day", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `"totalQueries":4`)
	assert.Contains(t, body, `"gift"`)
	assert.Contains(t, body, `"Building Blocks"`)
	assert.Contains(t, body, `"queriesByTime"`)
	assert.Contains(t, body, `"hour":10`)
	assert.Contains(t, body, `"period":"day"`)
}
