package unitofwork

import (
	"context"

	"flowershop-chat-be/internal/repository/contract"

	"gorm.io/gorm"
)

type RepositoryFactoryImpl struct {
	db *gorm.DB
}

func NewRepositoryFactory(db *gorm.DB) RepositoryFactory {
	return &RepositoryFactoryImpl{
		db: db,
	}
}

func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewUnitOfWork(f.db)
}

type qdrantRepositoryFactory struct {
	repo contract.CatalogRecordRepository
}

// NewQdrantRepositoryFactory shares one repository (and its gRPC connection)
// across units of work.
func NewQdrantRepositoryFactory(repo contract.CatalogRecordRepository) RepositoryFactory {
	return &qdrantRepositoryFactory{repo: repo}
}

func (f *qdrantRepositoryFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewQdrantUnitOfWork(f.repo)
}
