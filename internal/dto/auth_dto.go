package dto

import (
	"time"

	"github.com/google/uuid"
)

type GoogleLoginResponse struct {
	URL string `json:"url"`
}

type GoogleCallbackRequest struct {
	Code  string `query:"code" validate:"required"`
	State string `query:"state" validate:"required"`
}

type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

type VerifyEmailRequest struct {
	Token string `query:"token" validate:"required"`
}

// Session metadata captured at sign-in.
type SessionMeta struct {
	IpAddress string
	UserAgent string
}

type UserDTO struct {
	Id            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	Image         *string   `json:"image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
