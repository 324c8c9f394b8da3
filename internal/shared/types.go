package shared

// shared types across the application
// 1st: identity claims carried from auth middleware into handlers and services
// 2nd: add more shared types as needed

// AuthClaims is the caller identity established by access-token verification.
type AuthClaims struct {
	UserID   string `json:"user_id" db:"user_id"` // user identifier(UUID)
	Username string `json:"username" db:"user_name"`
	Email    string `json:"email" db:"email"`
	Role     string `json:"role" db:"role"`
}
