package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Kosench/shortlink/internal/database"
	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

const uniqueViolation = "23505"

type PostgresLinkRepository struct {
	db *sql.DB
}

var _ Backend = (*PostgresLinkRepository)(nil)

func NewPostgresLinkRepository(db *sql.DB) *PostgresLinkRepository {
	return &PostgresLinkRepository{
		db: db,
	}
}

// Insert relies on the primary key of links.code; a conflicting row makes
// the RETURNING clause produce no rows.
func (r *PostgresLinkRepository) Insert(ctx context.Context, link *model.Link) error {
	query := `
	INSERT INTO links (code, url, clicks, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (code) DO NOTHING
	RETURNING code
	`

	var code string
	err := r.db.QueryRowContext(
		ctx,
		query,
		link.Code,
		link.URL,
		link.Clicks,
		link.CreatedAt,
	).Scan(&code)

	if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
		return apperrors.ErrCodeExists
	}

	if err != nil {
		return apperrors.NewStoreError("postgres", "insert", err)
	}

	return nil
}

func (r *PostgresLinkRepository) FindByCode(ctx context.Context, code string) (*model.Link, error) {
	query := `
	SELECT code, url, clicks, created_at
	FROM links
	WHERE code = $1
	`

	link := &model.Link{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&link.Code,
		&link.URL,
		&link.Clicks,
		&link.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return nil, apperrors.NewStoreError("postgres", "find", err)
	}

	return link, nil
}

func (r *PostgresLinkRepository) IncrementClicks(ctx context.Context, code string) (*model.Link, error) {
	query := `
	UPDATE links
	SET clicks = clicks + 1
	WHERE code = $1
	RETURNING code, url, clicks, created_at
	`

	link := &model.Link{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&link.Code,
		&link.URL,
		&link.Clicks,
		&link.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return nil, apperrors.NewStoreError("postgres", "increment", err)
	}

	return link, nil
}

func (r *PostgresLinkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`).Scan(&count); err != nil {
		return 0, apperrors.NewStoreError("postgres", "count", err)
	}
	return count, nil
}

func (r *PostgresLinkRepository) InsertMany(ctx context.Context, links []*model.Link) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewStoreError("postgres", "begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO links (code, url, clicks, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING
	`)
	if err != nil {
		return 0, apperrors.NewStoreError("postgres", "prepare", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, link := range links {
		res, err := stmt.ExecContext(ctx, link.Code, link.URL, link.Clicks, link.CreatedAt)
		if err != nil {
			return 0, apperrors.NewStoreError("postgres", "insert", fmt.Errorf("code %s: %w", link.Code, err))
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewStoreError("postgres", "commit", err)
	}

	return inserted, nil
}

func (r *PostgresLinkRepository) Name() string { return "postgres" }

func (r *PostgresLinkRepository) HealthCheck(ctx context.Context) error {
	return database.HealthCheck(ctx, r.db)
}

// Version reports the server version string for the health endpoint.
func (r *PostgresLinkRepository) Version(ctx context.Context) (string, error) {
	version, err := database.GetVersion(ctx, r.db)
	if err != nil {
		return "", apperrors.NewStoreError("postgres", "version", err)
	}
	return version, nil
}

func (r *PostgresLinkRepository) Close() error {
	return r.db.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
