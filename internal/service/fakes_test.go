package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"flowershop-chat-be/internal/entity"
	"flowershop-chat-be/internal/repository/contract"
	"flowershop-chat-be/internal/repository/specification"
	"flowershop-chat-be/internal/repository/unitofwork"
	"flowershop-chat-be/pkg/events"
)

// memCatalogRepo stores records in memory; CreateBulk is only visible after Commit.
type memCatalogRepo struct {
	mu        sync.Mutex
	committed []*entity.CatalogRecord
	pending   []*entity.CatalogRecord
	createErr error
}

func (r *memCatalogRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, numCandidates int) ([]*contract.ScoredCatalogRecord, error) {
	return nil, nil
}

func (r *memCatalogRepo) CreateBulk(ctx context.Context, records []*entity.CatalogRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, records...)
	return nil
}

// matches interprets the catalog specifications the way the SQL backend does.
func matches(rec *entity.CatalogRecord, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.Indexed:
			if !rec.Indexable() {
				return false
			}
		case specification.ByUrl:
			if rec.Url != s.Url {
				return false
			}
		case specification.TitleContains:
			if !strings.Contains(strings.ToLower(rec.Title), strings.ToLower(s.Term)) {
				return false
			}
		case specification.Priced:
			if rec.Price == nil {
				return false
			}
		}
	}
	return true
}

func (r *memCatalogRepo) filtered(specs []specification.Specification) []*entity.CatalogRecord {
	out := []*entity.CatalogRecord{}
	for _, rec := range r.committed {
		if matches(rec, specs) {
			out = append(out, rec)
		}
	}
	return out
}

func (r *memCatalogRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CatalogRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.filtered(specs)
	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok {
			if p.Offset >= len(out) {
				return []*entity.CatalogRecord{}, nil
			}
			out = out[p.Offset:]
			if p.Limit < len(out) {
				out = out[:p.Limit]
			}
		}
	}
	return out, nil
}

func (r *memCatalogRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.filtered(specs))), nil
}

func (r *memCatalogRepo) stored() []*entity.CatalogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.CatalogRecord(nil), r.committed...)
}

type memUnitOfWork struct {
	repo   *memCatalogRepo
	active bool
}

func (u *memUnitOfWork) Begin(ctx context.Context) error {
	u.active = true
	return nil
}

func (u *memUnitOfWork) Commit() error {
	if !u.active {
		return errors.New("no transaction to commit")
	}
	u.repo.mu.Lock()
	u.repo.committed = append(u.repo.committed, u.repo.pending...)
	u.repo.pending = nil
	u.repo.mu.Unlock()
	u.active = false
	return nil
}

func (u *memUnitOfWork) Rollback() error {
	if !u.active {
		return errors.New("no transaction to rollback")
	}
	u.repo.mu.Lock()
	u.repo.pending = nil
	u.repo.mu.Unlock()
	u.active = false
	return nil
}

func (u *memUnitOfWork) CatalogRecordRepository() contract.CatalogRecordRepository {
	return u.repo
}

type memRepositoryFactory struct {
	repo *memCatalogRepo
}

func (f *memRepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUnitOfWork{repo: f.repo}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}
