package unitofwork

import (
	"context"

	"flowershop-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CatalogRecordRepository() contract.CatalogRecordRepository
}
