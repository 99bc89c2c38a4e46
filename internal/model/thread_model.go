package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Thread struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     *string   `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index"`

	Messages []Message `gorm:"foreignKey:ThreadId;constraint:OnDelete:CASCADE"`
}

func (Thread) TableName() string {
	return "threads"
}

func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	if t.Id == uuid.Nil {
		t.Id = uuid.New()
	}
	return nil
}

// Message sequence numbers are unique per thread; the composite index is what
// turns a concurrent append into a detectable duplicate-key error.
type Message struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	ThreadId         uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_messages_thread_sequence,priority:1"`
	Sequence         int       `gorm:"not null;uniqueIndex:idx_messages_thread_sequence,priority:2"`
	Role             string    `gorm:"type:varchar(20);not null;index"`
	Content          string    `gorm:"type:text;not null"`
	PromptTokens     *int
	CompletionTokens *int
	TotalTokens      *int
	CreatedAt        time.Time `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}

// All lists every model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&Account{},
		&Verification{},
		&Thread{},
		&Message{},
	}
}
