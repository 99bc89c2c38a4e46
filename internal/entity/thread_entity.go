package entity

import (
	"time"

	"github.com/google/uuid"
)

type Thread struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Thread) OwnedBy(userId uuid.UUID) bool {
	return t.UserId == userId
}
