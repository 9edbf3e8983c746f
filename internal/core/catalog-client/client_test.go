// internal/core/catalog-client/client_test.go
package catalogclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"shopping-assistant/internal/common/auth"
	commonerrors "shopping-assistant/internal/common/errors"
	commonhttp "shopping-assistant/internal/common/http"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/storage"
	"shopping-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(baseURL string) *Config {
	return &Config{
		BaseURL:            baseURL,
		Timeout:            2 * time.Second,
		LoginEntryPoint:    "/login",
		MinSuggestionChars: 2,
	}
}

type testEnv struct {
	client   *Client
	store    *storage.MemoryStore
	session  *auth.Session
	redirect []string
}

func setupClient(t *testing.T, handler http.HandlerFunc) *testEnv {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	env := &testEnv{store: storage.NewMemoryStore()}
	env.session = auth.NewSession(env.store)
	env.client = NewClient(
		createTestConfig(server.URL+"/api/"),
		env.session,
		logger.NewTestLogger(t),
		WithUnauthenticatedHook(func(entryPoint string) {
			env.redirect = append(env.redirect, entryPoint)
		}),
	)
	return env
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestListProducts_BareArrayAndEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"bare array", []map[string]interface{}{{"id": 1, "name": "Phone A"}, {"id": "2", "name": "Phone B"}}},
		{"envelope", map[string]interface{}{"products": []map[string]interface{}{{"id": 1, "name": "Phone A"}, {"id": "2", "name": "Phone B"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/products", r.URL.Path)
				assert.Equal(t, "8", r.URL.Query().Get("limit"))
				assert.Equal(t, "true", r.URL.Query().Get("featured"))
				writeJSON(w, http.StatusOK, tt.body)
			})

			products, err := env.client.ListProducts(context.Background(), ListParams{"limit": "8", "featured": "true"})
			require.NoError(t, err)
			require.Len(t, products, 2)
			assert.Equal(t, models.ProductID("1"), products[0].ID)
			assert.Equal(t, models.ProductID("2"), products[1].ID)
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []interface{}{})
	})
	require.NoError(t, env.session.Establish(context.Background(), "tok-123", nil))

	_, err := env.client.ListProducts(context.Background(), nil)
	require.NoError(t, err)
}

func TestRequestHeaders_Anonymous(t *testing.T) {
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []interface{}{})
	})

	_, err := env.client.ListProducts(context.Background(), nil)
	require.NoError(t, err)
}

func TestGetProduct(t *testing.T) {
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/p1":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"id": "p1", "name": "Phone", "price": 499.0,
				"specs": map[string]interface{}{"ram": "8GB"},
			})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		}
	})

	product, err := env.client.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Phone", product.Name)
	assert.Equal(t, "8GB", product.Spec(models.SpecRAM))
	assert.Equal(t, "N/A", product.Spec(models.SpecCamera))

	_, err = env.client.GetProduct(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrNotFound))
}

func TestSearch_SerializesFilters(t *testing.T) {
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "phone", q.Get("query"))
		assert.Equal(t, "Apple,Samsung", q.Get("brand"))
		assert.Equal(t, "100", q.Get("minPrice"))
		_, hasStorage := q["storage"]
		assert.False(t, hasStorage)
		_, hasMaxPrice := q["maxPrice"]
		assert.False(t, hasMaxPrice)
		writeJSON(w, http.StatusOK, map[string]interface{}{"products": []map[string]string{{"id": "a"}}})
	})

	products, err := env.client.Search(context.Background(), "  phone ", models.FilterCriteria{
		Brand:    []string{"Apple", "Samsung"},
		MinPrice: models.Float(100),
		Storage:  []string{},
	})
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestSearch_EmptyQueryMakesNoCall(t *testing.T) {
	var calls int32
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := env.client.Search(context.Background(), "   ", models.FilterCriteria{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrInvalidQuery))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSearch_InvalidFilter(t *testing.T) {
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := env.client.Search(context.Background(), "phone", models.FilterCriteria{
		MinPrice: models.Float(500),
		MaxPrice: models.Float(100),
	})
	assert.True(t, errors.Is(err, commonerrors.ErrInvalidFilter))
}

func TestGetSuggestions_ShortQuery(t *testing.T) {
	var calls int32
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "ap", r.URL.Query().Get("query"))
		writeJSON(w, http.StatusOK, []map[string]string{{"id": "1", "name": "Apple iPhone"}})
	})

	for _, q := range []string{"", "a", "é"} {
		got, err := env.client.GetSuggestions(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	got, err := env.client.GetSuggestions(context.Background(), "ap")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Apple iPhone", got[0].Name)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetPriceHistory_SortedAscending(t *testing.T) {
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/7/price-history", r.URL.Path)
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"date": "2024-03-01", "price": 90},
			{"date": "2024-01-01", "price": 100},
			{"date": "2024-02-01T10:00:00", "price": 80},
		})
	})

	history, err := env.client.GetPriceHistory(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 100.0, history[0].Price)
	assert.Equal(t, 80.0, history[1].Price)
	assert.Equal(t, 90.0, history[2].Price)

	summary := models.Summarize(history)
	assert.Equal(t, -10.0, summary.Change)
	assert.Equal(t, -10.0, summary.ChangePercent)
	assert.Equal(t, 80.0, summary.Min)
	assert.Equal(t, 100.0, summary.Max)
}

func TestFavorites(t *testing.T) {
	var added, removed int32
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/favorites/p1/check":
			writeJSON(w, http.StatusOK, map[string]bool{"isFavorite": true})
		case r.Method == http.MethodPost && r.URL.Path == "/api/favorites/p1":
			atomic.AddInt32(&added, 1)
			writeJSON(w, http.StatusCreated, map[string]string{"message": "added"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/favorites/p1":
			atomic.AddInt32(&removed, 1)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && r.URL.Path == "/api/favorites":
			writeJSON(w, http.StatusOK, []map[string]string{{"id": "p1"}})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	})
	ctx := context.Background()

	fav, err := env.client.CheckFavorite(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, fav)

	require.NoError(t, env.client.AddFavorite(ctx, "p1"))
	require.NoError(t, env.client.RemoveFavorite(ctx, "p1"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&added))
	assert.Equal(t, int32(1), atomic.LoadInt32(&removed))

	list, err := env.client.ListFavorites(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// ==========================
// Error Handling Tests
// ==========================

func TestUnauthorized_EvictsAndRedirects(t *testing.T) {
	var calls int32
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "expired"})
	})
	ctx := context.Background()
	require.NoError(t, env.session.Establish(ctx, "stale", &models.User{ID: "u1", Email: "a@b.c"}))

	_, err := env.client.ListFavorites(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrUnauthenticated))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "401 must not be retried")
	assert.Equal(t, []string{"/login"}, env.redirect)

	_, err = env.store.Get(ctx, auth.TokenKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = env.store.Get(ctx, auth.UserKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.False(t, env.session.IsAuthenticated(ctx))
}

func TestServerError(t *testing.T) {
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "down"})
	})

	_, err := env.client.ListProducts(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrServer))
	assert.Equal(t, http.StatusServiceUnavailable, commonerrors.StatusOf(err))
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(createTestConfig(url), nil, logger.NewNoOpLogger())
	_, err := client.GetProduct(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrNetwork))
}

func TestDecodeFailed(t *testing.T) {
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products": "nope"}`))
	})

	_, err := env.client.ListProducts(context.Background(), nil)
	assert.True(t, errors.Is(err, commonerrors.ErrDecodeFailed))
}

func TestCircuitBreaker_OpensAfterServerFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	cfg := createTestConfig(server.URL)
	cfg.Breaker = &commonhttp.BreakerSettings{
		Name:             "catalog-test",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
	client := NewClient(cfg, nil, logger.NewTestLogger(t))

	for i := 0; i < 2; i++ {
		_, err := client.ListProducts(context.Background(), nil)
		assert.True(t, errors.Is(err, commonerrors.ErrServer))
	}

	_, err := client.ListProducts(context.Background(), nil)
	assert.True(t, errors.Is(err, commonerrors.ErrNetwork))
	assert.ErrorIs(t, err, commonhttp.ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

// ==========================
// Auth Tests
// ==========================

func TestLogin_PersistsSession(t *testing.T) {
	env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.c", req.Email)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token": "tok-xyz",
			"user":  map[string]interface{}{"id": 5, "email": "a@b.c", "name": "Ann"},
		})
	})
	ctx := context.Background()

	resp, err := env.client.Login(ctx, "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-xyz", resp.Token)

	token, err := env.session.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-xyz", token)

	var user models.User
	found, err := env.session.LoadUser(ctx, &user)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.ID("5"), user.ID)

	require.NoError(t, env.client.Logout(ctx))
	assert.False(t, env.session.IsAuthenticated(ctx))
}

func TestCurrentUser_WrappedAndBare(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"bare", map[string]interface{}{"id": "u1", "email": "x@y.z"}},
		{"wrapped", map[string]interface{}{"user": map[string]interface{}{"id": "u1", "email": "x@y.z"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})
			user, err := env.client.CurrentUser(context.Background())
			require.NoError(t, err)
			assert.Equal(t, models.ID("u1"), user.ID)
			assert.Equal(t, "x@y.z", user.Email)
		})
	}
}
