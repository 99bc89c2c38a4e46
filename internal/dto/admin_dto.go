package dto

import (
	"github.com/google/uuid"
)

// CleanupResponse is the success body of POST /api/admin/cleanup.
type CleanupResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// CleanupErrorResponse never carries internal error text.
type CleanupErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type UserUsageResponse struct {
	UserId  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	Used    int64     `json:"used"`
	Limit   int64     `json:"limit"`
	IsAdmin bool      `json:"is_admin"`
}

type LogListRequest struct {
	Level string `query:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	Page  int    `query:"page" validate:"omitempty,min=1"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=200"`
}
