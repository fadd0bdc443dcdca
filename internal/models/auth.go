package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims carries the authenticated student identity.
type JWTClaims struct {
	StudentID string `json:"sub_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// LoginRequest captures the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse returns the issued access token and student info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	IssuedAt    time.Time   `json:"issued_at"`
	Student     StudentInfo `json:"student"`
}

// StudentInfo is the public projection of a student account.
type StudentInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
