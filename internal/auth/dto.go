package auth

// LoginRequest captures the user credentials sent to the token login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse contains the bearer token and its paired refresh token.
type TokenResponse struct {
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest carries the possibly expired access token and the refresh token
// issued alongside it.
type RefreshRequest struct {
	AuthToken    string `json:"auth_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}
