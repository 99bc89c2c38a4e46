package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"type:varchar(255);not null"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	EmailVerified bool      `gorm:"not null;default:false"`
	Image         *string   `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`

	Sessions []Session `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	Accounts []Account `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	Threads  []Thread  `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Id == uuid.Nil {
		u.Id = uuid.New()
	}
	return nil
}

// Session is a signed-in device. UpdatedAt doubles as the user's last activity.
type Session struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	IpAddress string    `gorm:"type:varchar(45)"`
	UserAgent string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.Id == uuid.Nil {
		s.Id = uuid.New()
	}
	return nil
}

// Account links a user to an identity provider.
type Account struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId            uuid.UUID `gorm:"type:uuid;not null;index"`
	ProviderId        string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_accounts_provider_account,priority:1"`
	ProviderAccountId string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_accounts_provider_account,priority:2"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.Id == uuid.Nil {
		a.Id = uuid.New()
	}
	return nil
}

type Verification struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Identifier string    `gorm:"type:varchar(255);not null;index"`
	Value      string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Verification) TableName() string {
	return "verifications"
}

func (v *Verification) BeforeCreate(tx *gorm.DB) error {
	if v.Id == uuid.Nil {
		v.Id = uuid.New()
	}
	return nil
}
