package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id            uuid.UUID
	Name          string
	Email         string
	EmailVerified bool
	Image         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Session struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	ExpiresAt time.Time
	IpAddress string
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

const ProviderGoogle = "google"

type Account struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	ProviderId        string
	ProviderAccountId string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Verification is a short-lived email verification token.
type Verification struct {
	Id         uuid.UUID
	Identifier string
	Value      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
