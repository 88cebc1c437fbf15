package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/accountsvc/accounts-service/internal/middleware"
	"github.com/accountsvc/accounts-service/internal/models"
)

// UserService is the interface that wraps methods for user CRUD business logic.
type UserService interface {
	// Method List retrieves all users ordered by ascending ID.
	List(ctx context.Context) ([]models.PublicUser, error)
	// Method GetByID retrieves a single user by ID.
	//
	// Returns apperrors.ErrNotFound when no user has the given ID.
	GetByID(ctx context.Context, userID int) (*models.PublicUser, error)
	// Method Create registers a new user with the store's default role.
	//
	// Returns a validation error on invalid input and
	// apperrors.ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, req *models.UserRequest) (*models.PublicUser, error)
	// Method Update fully replaces a user's editable fields.
	//
	// Returns apperrors.ErrNotFound when no row matched the ID and
	// apperrors.ErrAlreadyExists when the email is taken.
	Update(ctx context.Context, userID int, req *models.UserRequest) (*models.PublicUser, error)
	// Method Delete removes a user by ID.
	//
	// Returns apperrors.ErrNotFound when no row matched the ID.
	Delete(ctx context.Context, userID int) error
}

// UserHandler handles user CRUD HTTP requests
type UserHandler struct {
	BaseHandler
	userService UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{Logger: logger},
		userService: userService,
	}
}

// RegisterRoutes registers all user handler routes.
// "authenticate" admits any authenticated caller; "requireAdmin" admits admins only.
// Note: This assumes the router is already scoped to /api
func (h *UserHandler) RegisterRoutes(r chi.Router, authenticate, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		// Public signup
		r.Post("/", h.Create)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/", h.List)
			r.Delete("/{id}", h.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.OwnerOrAdmin)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Update)
		})
	})
}

// List handles GET /users
// @Summary List users
// @Description Get all users ordered by ascending ID. Admin only.
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.PublicUser "List of users"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.Logger.Error("failed to list users", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, users)
}

// Get handles GET /users/{id}
// @Summary Get user by ID
// @Description Get a single user. Restricted to the user themselves or an admin.
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.PublicUser "User"
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Access denied"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		h.Logger.Warn("failed to get user", zap.Error(err), zap.Int("userId", userID))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

// Create handles POST /users
// @Summary Register a new user
// @Description Public signup with username, email and password. Returns the created user and a Location header.
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.UserRequest true "New user"
// @Success 201 {object} models.PublicUser "User created"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		h.Logger.Warn("failed to create user", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/users/%d", user.ID))
	h.RespondJSON(w, http.StatusCreated, user)
}

// Update handles PUT /users/{id}
// @Summary Update user
// @Description Full replacement of username, email and password. Restricted to the user themselves or an admin.
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param request body models.UserRequest true "Updated user"
// @Success 200 {object} models.PublicUser "User updated"
// @Failure 400 {object} map[string]string "Invalid user ID or request body"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Access denied"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	var req models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.Update(r.Context(), userID, &req)
	if err != nil {
		h.Logger.Warn("failed to update user", zap.Error(err), zap.Int("userId", userID))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /users/{id}
// @Summary Delete user
// @Description Delete a user by ID. Admin only.
// @Tags users
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 204 "User deleted"
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		h.Logger.Warn("failed to delete user", zap.Error(err), zap.Int("userId", userID))
		h.RespondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseUserID extracts and validates the {id} path parameter. Writes a 400
// response and returns false when it is not a positive integer.
func (h *UserHandler) parseUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || userID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return userID, true
}
