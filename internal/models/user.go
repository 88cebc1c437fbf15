package models

import "time"

// Role is the access level of a user account
type Role string

// Role constants, stored as-is in the database and in token claims
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a row in the users table
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the request-scoped identity extracted from a verified access token
type Identity struct {
	UserID int
	Role   Role
}

// LoginRequest represents a login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserRequest represents the body of user create and update requests.
// All three fields are required; updates are full replacements.
type UserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PublicUser is the projection of a user returned by the CRUD endpoints
type PublicUser struct {
	ID          int       `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthUser is the projection of a user returned alongside a login token
type AuthUser struct {
	ID          int    `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// LoginResponse represents a successful login response body
type LoginResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// Public returns the CRUD projection of the user
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
	}
}

// Auth returns the login projection of the user
func (u *User) Auth() AuthUser {
	return AuthUser{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}
