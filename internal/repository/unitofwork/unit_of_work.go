package unitofwork

import (
	"context"

	"littlesteps-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SessionRepository() contract.SessionRepository
	AccountRepository() contract.AccountRepository
	VerificationRepository() contract.VerificationRepository
	ThreadRepository() contract.ThreadRepository
	MessageRepository() contract.MessageRepository
}
