package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"osworks-api/internal/config"
	"osworks-api/internal/domain/customer"
	"osworks-api/internal/pkg/i18n"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore backs both the reader and the registration service so a
// record saved through one is visible through the other.
type stubStore struct {
	customers map[int64]*customer.Customer
	nextID    int64
	saved     []*customer.Customer
	deleted   []int64
}

func (s *stubStore) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	out := make([]*customer.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubStore) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	if c, ok := s.customers[id]; ok {
		return c, nil
	}
	return nil, customer.ErrNotFound
}

func (s *stubStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	_, ok := s.customers[id]
	return ok, nil
}

func (s *stubStore) FindByNome(ctx context.Context, nome string) ([]*customer.Customer, error) {
	out := []*customer.Customer{}
	for _, c := range s.customers {
		if c.Nome == nome {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubStore) FindByNomeContaining(ctx context.Context, termo string) ([]*customer.Customer, error) {
	return []*customer.Customer{}, nil
}

func (s *stubStore) Save(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	if c.IsNew() {
		c.ID = s.nextID
		s.nextID++
	}
	stored := *c
	s.customers[c.ID] = &stored
	s.saved = append(s.saved, c)
	return c, nil
}

func (s *stubStore) Delete(ctx context.Context, id int64) error {
	delete(s.customers, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func newTestRouter(t *testing.T, cfg *config.Config) (*stubStore, http.Handler) {
	t.Helper()
	messages, err := i18n.NewMessageSource(i18n.LocalePtBR)
	require.NoError(t, err)

	store := &stubStore{
		customers: map[int64]*customer.Customer{
			1: {ID: 1, Nome: "Ana", Email: "ana@x.com"},
		},
		nextID: 100,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router, rateLimiter := SetupRouter(store, store, messages, cfg, logger)
	t.Cleanup(rateLimiter.Stop)
	return store, router
}

func serve(router http.Handler, method, path string, body []byte, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterCustomerRoutes(t *testing.T) {
	store, router := newTestRouter(t, &config.Config{})

	t.Run("health", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("list", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/clientes", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"id":1,"nome":"Ana","email":"ana@x.com"}]`, rec.Body.String())
	})

	t.Run("search is not taken for an id", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/clientes/busca?nome=Ana", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"id":1,"nome":"Ana","email":"ana@x.com"}]`, rec.Body.String())
	})

	t.Run("get unknown id", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/clientes/999", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("create", func(t *testing.T) {
		rec := serve(router, http.MethodPost, "/clientes", []byte(`{"nome":"Bia","email":"bia@x.com"}`), nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"id":100,"nome":"Bia","email":"bia@x.com"}`, rec.Body.String())
	})

	t.Run("update keeps path id", func(t *testing.T) {
		rec := serve(router, http.MethodPut, "/clientes/1", []byte(`{"id":7,"nome":"Ana Maria","email":"ana@x.com"}`), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1), store.saved[len(store.saved)-1].ID)
	})

	t.Run("delete unknown id", func(t *testing.T) {
		rec := serve(router, http.MethodDelete, "/clientes/42", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, store.deleted)
	})

	t.Run("delete", func(t *testing.T) {
		rec := serve(router, http.MethodDelete, "/clientes/1", nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []int64{1}, store.deleted)
	})

	t.Run("token endpoint absent when auth disabled", func(t *testing.T) {
		rec := serve(router, http.MethodPost, "/auth/token", []byte(`{"username":"ana"}`), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("swagger redirect", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/swagger", nil, nil)
		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "/swagger/index.html", rec.Header().Get("Location"))
	})

	t.Run("metrics", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/metrics", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "osworks_http_requests_total")
	})
}

func TestRouterCreateThenGet(t *testing.T) {
	store, router := newTestRouter(t, &config.Config{})

	rec := serve(router, http.MethodPost, "/clientes", []byte(`{"nome":"Ana","email":"ana@x.com"}`), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID    int64  `json:"id"`
		Nome  string `json:"nome"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	assert.Equal(t, "/clientes/"+strconv.FormatInt(created.ID, 10), rec.Header().Get("Location"))

	rec = serve(router, http.MethodGet, "/clientes/"+strconv.FormatInt(created.ID, 10), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched struct {
		ID    int64  `json:"id"`
		Nome  string `json:"nome"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Ana", fetched.Nome)
	assert.Equal(t, "ana@x.com", fetched.Email)

	rec = serve(router, http.MethodGet, "/clientes", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"nome":"Ana","email":"ana@x.com"},{"id":100,"nome":"Ana","email":"ana@x.com"}]`, rec.Body.String())
	assert.Len(t, store.customers, 2)
}

func TestRouterWithAuth(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Auth: config.AuthConfig{Enabled: true, JWTSecret: "router-secret", TokenTTL: time.Hour},
		},
	}
	_, router := newTestRouter(t, cfg)

	rec := serve(router, http.MethodGet, "/clientes", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodPost, "/auth/token", []byte(`{"username":"ana"}`), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var token struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))

	rec = serve(router, http.MethodGet, "/clientes", nil, http.Header{"Authorization": {token.Token}})
	assert.Equal(t, http.StatusOK, rec.Code)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ana"}).SignedString([]byte("other"))
	require.NoError(t, err)
	rec = serve(router, http.MethodGet, "/clientes", nil, http.Header{"Authorization": {"Bearer " + forged}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
