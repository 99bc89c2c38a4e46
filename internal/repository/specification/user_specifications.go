package specification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByEmail matches case-insensitively; emails are stored lower-case.
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", strings.ToLower(strings.TrimSpace(s.Email)))
}

type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByIdentifier struct {
	Identifier string
}

func (s ByIdentifier) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("identifier = ?", s.Identifier)
}

type ByValue struct {
	Value string
}

func (s ByValue) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("value = ?", s.Value)
}

type ByProviderAccount struct {
	ProviderId        string
	ProviderAccountId string
}

func (s ByProviderAccount) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("provider_id = ? AND provider_account_id = ?", s.ProviderId, s.ProviderAccountId)
}

type ByProvider struct {
	ProviderId string
}

func (s ByProvider) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("provider_id = ?", s.ProviderId)
}

// NotExpired keeps rows whose expires_at is still in the future.
type NotExpired struct {
	Now time.Time
}

func (s NotExpired) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at > ?", s.Now)
}
