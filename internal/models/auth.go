package models

// LoginRequest holds credentials typed at the login prompt.
type LoginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}
