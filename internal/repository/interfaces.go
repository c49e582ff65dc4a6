package repository

import (
	"context"

	"github.com/Kosench/shortlink/internal/model"
)

// LinkRepository is the storage collaborator of the shortener.
//
// Insert must report a duplicate code as apperrors.ErrCodeExists.
// IncrementClicks must locate and increment in one atomic step and return
// the post-increment record, or apperrors.ErrLinkNotFound.
type LinkRepository interface {
	Insert(ctx context.Context, link *model.Link) error
	FindByCode(ctx context.Context, code string) (*model.Link, error)
	IncrementClicks(ctx context.Context, code string) (*model.Link, error)
	Count(ctx context.Context) (int64, error)
	// InsertMany inserts links unordered, skipping codes that already
	// exist, and returns how many were written.
	InsertMany(ctx context.Context, links []*model.Link) (int, error)
}

// Backend is a LinkRepository bound to a live connection.
type Backend interface {
	LinkRepository
	Name() string
	HealthCheck(ctx context.Context) error
	Close() error
}
