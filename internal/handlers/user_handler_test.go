package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/accountsvc/accounts-service/internal/apperrors"
	"github.com/accountsvc/accounts-service/internal/auth"
	"github.com/accountsvc/accounts-service/internal/middleware"
	"github.com/accountsvc/accounts-service/internal/models"
)

// mockUserService is a mock implementation of UserService
type mockUserService struct {
	users     []models.PublicUser
	user      *models.PublicUser
	err       error
	gotUserID int
	gotReq    *models.UserRequest
}

func (m *mockUserService) List(ctx context.Context) ([]models.PublicUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

func (m *mockUserService) GetByID(ctx context.Context, userID int) (*models.PublicUser, error) {
	m.gotUserID = userID
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserService) Create(ctx context.Context, req *models.UserRequest) (*models.PublicUser, error) {
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserService) Update(ctx context.Context, userID int, req *models.UserRequest) (*models.PublicUser, error) {
	m.gotUserID = userID
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserService) Delete(ctx context.Context, userID int) error {
	m.gotUserID = userID
	return m.err
}

var testTokenGen = auth.NewTokenGenerator("handler-test-secret", time.Hour)

// setupUserRouter mounts the user handler with real auth middleware, scoped to /api
func setupUserRouter(svc UserService) chi.Router {
	h := NewUserHandler(svc, zap.NewNop())
	authenticate := middleware.Authenticate(testTokenGen)
	requireAdmin := middleware.Authenticate(testTokenGen, models.RoleAdmin)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r, authenticate, requireAdmin)
	})
	return r
}

// bearer returns an Authorization header value for the given identity
func bearer(t *testing.T, userID int, role models.Role) string {
	t.Helper()
	token, err := testTokenGen.Generate(userID, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestUserHandler_Create(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("created with location header", func(t *testing.T) {
		svc := &mockUserService{
			user: &models.PublicUser{ID: 8, DisplayName: "ab", Email: "a@b.com", CreatedAt: createdAt},
		}
		r := setupUserRouter(svc)

		body, _ := json.Marshal(models.UserRequest{Username: "ab", Email: "a@b.com", Password: "longenough1"})
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(body))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "/api/users/8", w.Header().Get("Location"))

		var got models.PublicUser
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 8, got.ID)
		assert.Equal(t, "ab", got.DisplayName)
		assert.Equal(t, "a@b.com", got.Email)
	})

	t.Run("invalid body", func(t *testing.T) {
		r := setupUserRouter(&mockUserService{})

		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		svc := &mockUserService{err: apperrors.NewValidationError("password must be at least 8 characters")}
		r := setupUserRouter(svc)

		body, _ := json.Marshal(models.UserRequest{Username: "ab", Email: "a@b.com", Password: "short"})
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(body))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "password must be at least 8 characters")
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := &mockUserService{err: apperrors.ErrAlreadyExists}
		r := setupUserRouter(svc)

		body, _ := json.Marshal(models.UserRequest{Username: "ab", Email: "a@b.com", Password: "longenough1"})
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(body))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestUserHandler_List(t *testing.T) {
	t.Run("admin", func(t *testing.T) {
		svc := &mockUserService{users: []models.PublicUser{{ID: 1}, {ID: 2}}}
		r := setupUserRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", bearer(t, 1, models.RoleAdmin))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got []models.PublicUser
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		r := setupUserRouter(&mockUserService{})

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", bearer(t, 7, models.RoleUser))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := setupUserRouter(&mockUserService{})

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserHandler_Get(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		svc := &mockUserService{user: &models.PublicUser{ID: 7, DisplayName: "bob", Email: "bob@example.com"}}
		r := setupUserRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/users/7", nil)
		req.Header.Set("Authorization", bearer(t, 7, models.RoleUser))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 7, svc.gotUserID)
	})

	t.Run("other user forbidden", func(t *testing.T) {
		r := setupUserRouter(&mockUserService{})

		req := httptest.NewRequest(http.MethodGet, "/api/users/5", nil)
		req.Header.Set("Authorization", bearer(t, 7, models.RoleUser))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin reads any user", func(t *testing.T) {
		svc := &mockUserService{user: &models.PublicUser{ID: 5}}
		r := setupUserRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/users/5", nil)
		req.Header.Set("Authorization", bearer(t, 1, models.RoleAdmin))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockUserService{err: apperrors.ErrNotFound}
		r := setupUserRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/users/7", nil)
		req.Header.Set("Authorization", bearer(t, 7, models.RoleUser))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		r := setupUserRouter(&mockUserService{})

		req := httptest.NewRequest(http.MethodGet, "/api/users/abc", nil)
		req.Header.Set("Authorization", bearer(t, 7, models.RoleUser))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserHandler_Update(t *testing.T) {
	t.Run("owner updates self", func(t *testing.T) {
		svc := &mockUserService{user: &models.PublicUser{ID: 7, DisplayName: "newname", Email: "new@example.com"}}
		r := setupUserRouter(svc)

		body, _ := json.Marshal(models.UserRequest{Username: "newname", Email: "new@example.com", Password: "anotherpass1"})
		req := httptest.NewRequest(http.MethodPut, "/api/users/7", bytes.NewReader(body))
		req.Header.Set("Authorization", bearer(t, 7, models.RoleUser))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 7, svc.gotUserID)
		require.NotNil(t, svc.gotReq)
		assert.Equal(t, "newname", svc.gotReq.Username)
	})

	t.Run("other user forbidden", func(t *testing.T) {
		r := setupUserRouter(&mockUserService{})

		body, _ := json.Marshal(models.UserRequest{Username: "newname", Email: "new@example.com", Password: "anotherpass1"})
		req := httptest.NewRequest(http.MethodPut, "/api/users/5", bytes.NewReader(body))
		req.Header.Set("Authorization", bearer(t, 7, models.RoleUser))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockUserService{err: apperrors.ErrNotFound}
		r := setupUserRouter(svc)

		body, _ := json.Marshal(models.UserRequest{Username: "newname", Email: "new@example.com", Password: "anotherpass1"})
		req := httptest.NewRequest(http.MethodPut, "/api/users/7", bytes.NewReader(body))
		req.Header.Set("Authorization", bearer(t, 7, models.RoleUser))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUserHandler_Delete(t *testing.T) {
	t.Run("admin deletes user", func(t *testing.T) {
		svc := &mockUserService{}
		r := setupUserRouter(svc)

		req := httptest.NewRequest(http.MethodDelete, "/api/users/3", nil)
		req.Header.Set("Authorization", bearer(t, 1, models.RoleAdmin))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, 3, svc.gotUserID)
	})

	t.Run("non-admin forbidden regardless of ownership", func(t *testing.T) {
		r := setupUserRouter(&mockUserService{})

		req := httptest.NewRequest(http.MethodDelete, "/api/users/3", nil)
		req.Header.Set("Authorization", bearer(t, 3, models.RoleUser))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockUserService{err: apperrors.ErrNotFound}
		r := setupUserRouter(svc)

		req := httptest.NewRequest(http.MethodDelete, "/api/users/99", nil)
		req.Header.Set("Authorization", bearer(t, 1, models.RoleAdmin))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		r := setupUserRouter(&mockUserService{})

		req := httptest.NewRequest(http.MethodDelete, "/api/users/0", nil)
		req.Header.Set("Authorization", bearer(t, 1, models.RoleAdmin))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
