package orderControllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PePeVeraz-ux/barcoda/auth"
	"github.com/PePeVeraz-ux/barcoda/idempotency"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/PePeVeraz-ux/barcoda/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingFeed struct {
	mu     sync.Mutex
	events []string
}

func (f *recordingFeed) Broadcast(eventType string, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
}

func newRouter(t *testing.T, db *gorm.DB, role string, opts CheckoutOptions) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.ContextUserID, c.GetHeader("X-Test-User"))
		c.Set(auth.ContextRole, role)
	})
	r.POST("/api/orders", PlaceOrderHandler(db, log, opts))
	r.GET("/api/orders", GetUserOrdersHandler(db, log))
	r.GET("/api/orders/:id", GetOrderByIDHandler(db, log))
	r.GET("/api/admin/orders", GetAllOrdersHandler(db, log))
	r.PATCH("/api/admin/orders/:id/status", UpdateOrderStatusHandler(db, log, opts.Feed))
	r.GET("/api/admin/orders/export", ExportOrdersToExcel(db, log))
	return r
}

func send(r *gin.Engine, method, path, user, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", user)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func orderBody(cartID string) string {
	b, _ := json.Marshal(shippingInput(cartID))
	return string(b)
}

func TestPlaceOrderHandlerIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	card := testutil.SeedProduct(t, db, "Pack", "12.50", 10)
	cart := testutil.SeedCart(t, db, "alice")
	testutil.SeedCartItem(t, db, cart.ID, card.ID, 2)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	feed := &recordingFeed{}
	r := newRouter(t, db, auth.RoleCustomer, CheckoutOptions{
		HandoffDestination: destination,
		Guard:              idempotency.NewGuard(client, "idem:orders", time.Hour),
		Feed:               feed,
	})

	headers := map[string]string{IdempotencyHeader: "checkout-1"}
	first := send(r, http.MethodPost, "/api/orders", "alice", orderBody(cart.ID), headers)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	var placed map[string]any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &placed))
	assert.EqualValues(t, 25, placed["total"])
	assert.Equal(t, destination, placed["handoffDestination"])
	assert.NotEmpty(t, placed["handoffMessage"])

	// The retry replays the stored response instead of failing on the empty cart.
	second := send(r, http.MethodPost, "/api/orders", "alice", orderBody(cart.ID), headers)
	require.Equal(t, http.StatusOK, second.Code)
	assert.True(t, bytes.Equal(first.Body.Bytes(), second.Body.Bytes()))

	assert.EqualValues(t, 1, countRows(t, db, &models.Order{}))
	assert.Equal(t, 8, testutil.Stock(t, db, card.ID))
	assert.Equal(t, []string{EventOrderCreated}, feed.events)

	// Without a key the empty cart is rejected.
	third := send(r, http.MethodPost, "/api/orders", "alice", orderBody(cart.ID), nil)
	assert.Equal(t, http.StatusBadRequest, third.Code)
}

// writtenFeed records how much of the response had been written when each
// event was published.
type writtenFeed struct {
	w       *httptest.ResponseRecorder
	written []int
}

func (f *writtenFeed) Broadcast(string, any) {
	f.written = append(f.written, f.w.Body.Len())
}

func TestHandlersPublishAfterResponding(t *testing.T) {
	db := testutil.NewDB(t)
	card := testutil.SeedProduct(t, db, "Pack", "10", 5)
	cart := testutil.SeedCart(t, db, "alice")
	testutil.SeedCartItem(t, db, cart.ID, card.ID, 1)

	feed := &writtenFeed{w: httptest.NewRecorder()}
	r := newRouter(t, db, auth.RoleAdmin, CheckoutOptions{HandoffDestination: destination, Feed: feed})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(orderBody(cart.ID)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "alice")
	r.ServeHTTP(feed.w, req)
	require.Equal(t, http.StatusOK, feed.w.Code, feed.w.Body.String())

	var placed struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(feed.w.Body.Bytes(), &placed))
	require.NotEmpty(t, placed.OrderID)

	feed.w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/admin/orders/"+placed.OrderID+"/status", strings.NewReader(`{"status":"processing"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "admin")
	r.ServeHTTP(feed.w, req)
	require.Equal(t, http.StatusOK, feed.w.Code, feed.w.Body.String())

	require.Len(t, feed.written, 2)
	for _, n := range feed.written {
		assert.Positive(t, n)
	}
}

func TestPlaceOrderHandlerReleasesKeyOnFailure(t *testing.T) {
	db := testutil.NewDB(t)
	card := testutil.SeedProduct(t, db, "Pack", "10", 1)
	cart := testutil.SeedCart(t, db, "alice")
	testutil.SeedCartItem(t, db, cart.ID, card.ID, 1)
	require.NoError(t, db.Model(card).Update("stock", 0).Error)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := newRouter(t, db, auth.RoleCustomer, CheckoutOptions{
		HandoffDestination: destination,
		Guard:              idempotency.NewGuard(client, "idem:orders", time.Hour),
	})

	headers := map[string]string{IdempotencyHeader: "checkout-2"}
	w := send(r, http.MethodPost, "/api/orders", "alice", orderBody(cart.ID), headers)
	require.Equal(t, http.StatusConflict, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body["issues"], 1)
	assert.False(t, mr.Exists("idem:orders:alice:checkout-2"))

	// Restocked, the same key now goes through.
	require.NoError(t, db.Model(card).Update("stock", 1).Error)
	w = send(r, http.MethodPost, "/api/orders", "alice", orderBody(cart.ID), headers)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlaceOrderHandlerWithoutGuard(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(t, db, auth.RoleCustomer, CheckoutOptions{HandoffDestination: destination})

	w := send(r, http.MethodPost, "/api/orders", "alice", `{"cartId":"x"}`, map[string]string{IdempotencyHeader: "k"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Shipping details are incomplete", body["error"])
	require.Len(t, body["fields"], 5)
	first := body["fields"].([]any)[0].(map[string]any)
	assert.Equal(t, "fullName", first["field"])
	assert.Equal(t, "is required", first["message"])
}

func TestOrderReadAndStatusHandlers(t *testing.T) {
	db := testutil.NewDB(t)
	card := testutil.SeedProduct(t, db, "Pack", "5", 5)
	cart := testutil.SeedCart(t, db, "alice")
	testutil.SeedCartItem(t, db, cart.ID, card.ID, 1)

	feed := &recordingFeed{}
	customer := newRouter(t, db, auth.RoleCustomer, CheckoutOptions{HandoffDestination: destination})
	admin := newRouter(t, db, auth.RoleAdmin, CheckoutOptions{Feed: feed})

	w := send(customer, http.MethodPost, "/api/orders", "alice", orderBody(cart.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var placed struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	assert.Equal(t, http.StatusOK, send(customer, http.MethodGet, "/api/orders/"+placed.OrderID, "alice", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, send(customer, http.MethodGet, "/api/orders/"+placed.OrderID, "bob", "", nil).Code)
	assert.Equal(t, http.StatusOK, send(admin, http.MethodGet, "/api/orders/"+placed.OrderID, "root", "", nil).Code)

	w = send(admin, http.MethodPatch, "/api/admin/orders/"+placed.OrderID+"/status", "root", `{"status":"processing"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{EventOrderUpdated}, feed.events)

	w = send(admin, http.MethodGet, "/api/admin/orders?status=processing", "root", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Orders []models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Orders, 1)
	assert.Equal(t, models.OrderStatusProcessing, list.Orders[0].Status)

	assert.Equal(t, http.StatusBadRequest, send(admin, http.MethodGet, "/api/admin/orders?status=lost", "root", "", nil).Code)

	w = send(admin, http.MethodGet, "/api/admin/orders/export", "root", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	book, err := xlsx.OpenBinary(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, book.Sheets, 2)
	assert.Len(t, book.Sheets[0].Rows, 2, "header plus one order")
	assert.Equal(t, placed.OrderID, book.Sheets[0].Rows[1].Cells[0].Value)
	assert.Equal(t, "Pack", book.Sheets[1].Rows[1].Cells[2].Value)
}
