package repository

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

// MemoryLinkRepository keeps links in process memory. It backs the
// memory:// storage URI and stands in for a real store in tests.
type MemoryLinkRepository struct {
	mu    sync.Mutex
	links map[string]model.Link
}

var _ Backend = (*MemoryLinkRepository)(nil)

func NewMemoryLinkRepository() *MemoryLinkRepository {
	return &MemoryLinkRepository{
		links: make(map[string]model.Link),
	}
}

func (r *MemoryLinkRepository) Insert(ctx context.Context, link *model.Link) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewStoreError("memory", "insert", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.Code]; exists {
		return apperrors.ErrCodeExists
	}
	r.links[link.Code] = *link
	return nil
}

func (r *MemoryLinkRepository) FindByCode(ctx context.Context, code string) (*model.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreError("memory", "find", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[code]
	if !exists {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}
	return &link, nil
}

func (r *MemoryLinkRepository) IncrementClicks(ctx context.Context, code string) (*model.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreError("memory", "increment", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[code]
	if !exists {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}
	link.Clicks++
	r.links[code] = link
	return &link, nil
}

func (r *MemoryLinkRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.links)), nil
}

func (r *MemoryLinkRepository) InsertMany(ctx context.Context, links []*model.Link) (int, error) {
	inserted := 0
	for _, link := range links {
		err := r.Insert(ctx, link)
		if err == apperrors.ErrCodeExists {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *MemoryLinkRepository) Name() string { return "memory" }

func (r *MemoryLinkRepository) HealthCheck(ctx context.Context) error { return nil }

func (r *MemoryLinkRepository) Close() error { return nil }
