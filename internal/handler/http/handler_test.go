package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saschakew/ShoppingLists/internal/domain"
	"github.com/Saschakew/ShoppingLists/internal/dto"
	httpHandler "github.com/Saschakew/ShoppingLists/internal/handler/http"
	gormpersistence "github.com/Saschakew/ShoppingLists/internal/infra/persistence/gorm"
	"github.com/Saschakew/ShoppingLists/internal/infra/setup"
	"github.com/Saschakew/ShoppingLists/internal/service"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []dto.Envelope
}

func (p *recordingPublisher) Publish(_ uint, event dto.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) LeaveUser(uint, uint) int { return 0 }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type testServer struct {
	router    *gin.Engine
	publisher *recordingPublisher
	alice     *domain.User
	bob       *domain.User
	carol     *domain.User
}

// newTestServer mounts the handlers behind a stub auth middleware that
// trusts the X-User-ID header.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := setup.InitDB(setup.DBOptions{Driver: setup.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, setup.MigrateDB(db))

	userRepo := gormpersistence.NewGormUserRepository(db)
	listRepo := gormpersistence.NewGormListRepository(db)
	itemRepo := gormpersistence.NewGormItemRepository(db)
	shareRepo := gormpersistence.NewGormShareRepository(db)

	ts := &testServer{publisher: &recordingPublisher{}}
	now := func() time.Time { return fixedNow }
	guard := service.NewAccessGuard(listRepo, shareRepo)
	listService := service.NewListService(listRepo, itemRepo, shareRepo, userRepo, guard, ts.publisher, ts.publisher, nil, now)
	syncService := service.NewSyncService(itemRepo, userRepo, guard, now)
	authService, err := service.NewAuthService(userRepo, "test-secret", 1)
	require.NoError(t, err)

	ctx := context.Background()
	ts.alice = &domain.User{Username: "alice", Password: "x"}
	ts.bob = &domain.User{Username: "bob", Password: "x"}
	ts.carol = &domain.User{Username: "carol", Password: "x"}
	for _, u := range []*domain.User{ts.alice, ts.bob, ts.carol} {
		require.NoError(t, userRepo.Save(ctx, u))
	}

	lists := httpHandler.NewListHandler(listService, syncService)
	auth := httpHandler.NewAuthHandler(authService)

	r := gin.New()
	r.POST("/api/auth/register", auth.Register)
	r.POST("/api/auth/login", auth.Login)
	api := r.Group("/api", func(c *gin.Context) {
		if id, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 32); err == nil {
			c.Set("user_id", uint(id))
		}
		c.Next()
	})
	api.GET("/lists", lists.GetLists)
	api.POST("/lists", lists.CreateList)
	api.GET("/list/:listId", lists.GetList)
	api.DELETE("/list/:listId", lists.DeleteList)
	api.POST("/list/:listId/add_item", lists.AddItem)
	api.POST("/list/:listId/delete_item", lists.DeleteItem)
	api.GET("/list/:listId/updates", lists.GetUpdates)
	api.POST("/list/:listId/share", lists.ShareList)
	api.DELETE("/list/:listId/share/:userId", lists.RevokeShare)
	api.POST("/list/:listId/favorite", lists.ToggleFavorite)
	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, user *domain.User, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-User-ID", strconv.FormatUint(uint64(user.ID), 10))
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

// sharedList creates alice's list shared with bob and returns its path prefix.
func (ts *testServer) sharedList(t *testing.T) string {
	t.Helper()
	w, body := ts.do(t, http.MethodPost, "/api/lists", ts.alice, gin.H{"name": "Groceries"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := uint64(body["list"].(map[string]interface{})["id"].(float64))
	prefix := "/api/list/" + strconv.FormatUint(id, 10)

	w, _ = ts.do(t, http.MethodPost, prefix+"/share", ts.alice, gin.H{"username": "bob"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return prefix
}

func TestListHandler_AddItemBroadcastsAndReturnsView(t *testing.T) {
	ts := newTestServer(t)
	prefix := ts.sharedList(t)

	w, body := ts.do(t, http.MethodPost, prefix+"/add_item", ts.bob, gin.H{"item_name": "Milk", "category": "Dairy"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])

	item := body["item"].(map[string]interface{})
	assert.Equal(t, "Milk", item["item_name"])
	assert.Equal(t, "Dairy", item["category"])
	assert.Equal(t, "bob", item["added_by_username"])
	assert.Equal(t, "2024-03-01 10:00", item["added_at"])
	assert.Equal(t, false, item["is_purchased"])
	assert.Equal(t, 1, ts.publisher.count())

	w, body = ts.do(t, http.MethodPost, prefix+"/add_item", ts.bob, gin.H{"item_name": "Soap", "category": "Cleaning"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Other", body["item"].(map[string]interface{})["category"])
}

func TestListHandler_StrangerIsForbidden(t *testing.T) {
	ts := newTestServer(t)
	prefix := ts.sharedList(t)

	w, body := ts.do(t, http.MethodPost, prefix+"/add_item", ts.carol, gin.H{"item_name": "Milk"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unauthorized access to list", body["error"])
	assert.Zero(t, ts.publisher.count())

	w, _ = ts.do(t, http.MethodGet, prefix, ts.carol, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListHandler_Validation(t *testing.T) {
	ts := newTestServer(t)
	prefix := ts.sharedList(t)

	w, body := ts.do(t, http.MethodPost, prefix+"/add_item", ts.alice, gin.H{"item_name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = ts.do(t, http.MethodPost, prefix+"/delete_item", ts.alice, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/lists", ts.alice, gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/api/list/abc", ts.alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/api/list/9999", ts.alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/api/lists", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListHandler_DeleteItemTwice(t *testing.T) {
	ts := newTestServer(t)
	prefix := ts.sharedList(t)

	_, body := ts.do(t, http.MethodPost, prefix+"/add_item", ts.alice, gin.H{"item_name": "Bread", "category": "Bakery"})
	itemID := body["item"].(map[string]interface{})["id"].(float64)

	w, body := ts.do(t, http.MethodPost, prefix+"/delete_item", ts.bob, gin.H{"item_id": itemID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, itemID, body["item_id"])

	w, _ = ts.do(t, http.MethodPost, prefix+"/delete_item", ts.bob, gin.H{"item_id": itemID})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 2, ts.publisher.count(), "one item_added and one item_deleted")
}

func TestListHandler_GetUpdates(t *testing.T) {
	ts := newTestServer(t)
	prefix := ts.sharedList(t)
	ts.do(t, http.MethodPost, prefix+"/add_item", ts.alice, gin.H{"item_name": "Apples", "category": "Fruits"})

	w, body := ts.do(t, http.MethodGet, prefix+"/updates?since=abc", ts.bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid timestamp", body["error"])

	w, body = ts.do(t, http.MethodGet, prefix+"/updates?since=-5", ts.bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid timestamp", body["error"])

	w, body = ts.do(t, http.MethodGet, prefix+"/updates?since=-5", ts.carol, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "access is checked before the cursor")
	assert.Equal(t, "Unauthorized access to list", body["error"])

	w, body = ts.do(t, http.MethodGet, prefix+"/updates?since=0", ts.carol, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Unauthorized access to list", body["error"])

	w, body = ts.do(t, http.MethodGet, prefix+"/updates", ts.bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(fixedNow.UnixMilli()), body["timestamp"])
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Apples", items[0].(map[string]interface{})["item_name"])

	since := strconv.FormatInt(fixedNow.Add(time.Second).UnixMilli(), 10)
	w, body = ts.do(t, http.MethodGet, prefix+"/updates?since="+since, ts.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["items"])
}

func TestListHandler_ShareRules(t *testing.T) {
	ts := newTestServer(t)
	prefix := ts.sharedList(t)

	w, _ := ts.do(t, http.MethodPost, prefix+"/share", ts.alice, gin.H{"username": "bob"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = ts.do(t, http.MethodPost, prefix+"/share", ts.alice, gin.H{"username": "alice"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = ts.do(t, http.MethodPost, prefix+"/share", ts.alice, gin.H{"username": "nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(t, http.MethodPost, prefix+"/share", ts.bob, gin.H{"username": "carol"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	revoke := prefix + "/share/" + strconv.FormatUint(uint64(ts.bob.ID), 10)
	w, _ = ts.do(t, http.MethodDelete, revoke, ts.alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.do(t, http.MethodDelete, revoke, ts.alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(t, http.MethodGet, prefix, ts.bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListHandler_FavoriteAndDelete(t *testing.T) {
	ts := newTestServer(t)
	prefix := ts.sharedList(t)

	w, body := ts.do(t, http.MethodPost, prefix+"/favorite", ts.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["is_favorite"])

	w, body = ts.do(t, http.MethodGet, "/api/lists", ts.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	lists := body["lists"].([]interface{})
	require.Len(t, lists, 1)
	assert.Equal(t, true, lists[0].(map[string]interface{})["is_favorite"])
	assert.Equal(t, "shared_viewer", lists[0].(map[string]interface{})["capability"])

	w, _ = ts.do(t, http.MethodDelete, prefix, ts.bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = ts.do(t, http.MethodDelete, prefix, ts.alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, http.MethodGet, prefix, ts.alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = ts.do(t, http.MethodGet, "/api/lists", ts.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["lists"])
}

func TestListHandler_GetListDetail(t *testing.T) {
	ts := newTestServer(t)
	prefix := ts.sharedList(t)
	ts.do(t, http.MethodPost, prefix+"/add_item", ts.bob, gin.H{"item_name": "Salmon", "category": "Fish & Seafood"})

	w, body := ts.do(t, http.MethodGet, prefix, ts.bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "shared_viewer", body["capability"])
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "bob", items[0].(map[string]interface{})["added_by_username"])
	assert.Len(t, body["categories"], len(domain.Categories))
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodPost, "/api/auth/register", nil, gin.H{"username": "dave", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotZero(t, body["user_id"])

	w, _ = ts.do(t, http.MethodPost, "/api/auth/register", nil, gin.H{"username": "dave", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = ts.do(t, http.MethodPost, "/api/auth/login", nil, gin.H{"username": "dave", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])

	w, _ = ts.do(t, http.MethodPost, "/api/auth/login", nil, gin.H{"username": "dave", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
