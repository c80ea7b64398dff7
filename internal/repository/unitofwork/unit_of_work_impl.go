package unitofwork

import (
	"context"
	"fmt"

	"flowershop-chat-be/internal/repository/contract"
	"flowershop-chat-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) CatalogRecordRepository() contract.CatalogRecordRepository {
	return implementation.NewCatalogRecordRepository(u.getDB())
}

// qdrantUnitOfWork has no transactions; Begin/Commit/Rollback only track state
// so callers written against the gorm flow behave the same.
type qdrantUnitOfWork struct {
	repo   contract.CatalogRecordRepository
	active bool
}

func NewQdrantUnitOfWork(repo contract.CatalogRecordRepository) UnitOfWork {
	return &qdrantUnitOfWork{repo: repo}
}

func (u *qdrantUnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}
	u.active = true
	return nil
}

func (u *qdrantUnitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}
	u.active = false
	return nil
}

func (u *qdrantUnitOfWork) Rollback() error {
	if !u.active {
		return fmt.Errorf("no transaction to rollback")
	}
	u.active = false
	return nil
}

func (u *qdrantUnitOfWork) CatalogRecordRepository() contract.CatalogRecordRepository {
	return u.repo
}
