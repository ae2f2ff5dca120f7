package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

// uniqueViolation is the postgres error code for unique constraint violations.
const uniqueViolation = "23505"

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByShortCode(ctx context.Context, code string) (*models.Link, error)
	List(ctx context.Context) ([]*models.Link, error)
	Delete(ctx context.Context, code string) error
	CodeExists(ctx context.Context, code string) (bool, error)
	// IncrementClicks bumps the counter and click timestamp as one statement
	// and returns the target URL. The single UPDATE keeps concurrent redirects
	// lossless and never touches a row a concurrent delete already removed.
	IncrementClicks(ctx context.Context, code string) (string, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (short_code, target_url, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ShortCode,
		link.TargetURL,
		link.CreatedAt,
	).Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	query := `
		SELECT id, short_code, target_url, total_clicks, created_at, last_clicked_at
		FROM links
		WHERE short_code = $1
	`

	link := &models.Link{}
	err := r.db.Pool.QueryRow(ctx, query, code).Scan(
		&link.ID,
		&link.ShortCode,
		&link.TargetURL,
		&link.TotalClicks,
		&link.CreatedAt,
		&link.LastClickedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) List(ctx context.Context) ([]*models.Link, error) {
	query := `
		SELECT id, short_code, target_url, total_clicks, created_at, last_clicked_at
		FROM links
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []*models.Link{}
	for rows.Next() {
		link := &models.Link{}
		if err := rows.Scan(
			&link.ID,
			&link.ShortCode,
			&link.TargetURL,
			&link.TotalClicks,
			&link.CreatedAt,
			&link.LastClickedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (r *linkRepository) Delete(ctx context.Context, code string) error {
	query := `DELETE FROM links WHERE short_code = $1`

	result, err := r.db.Pool.Exec(ctx, query, code)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check code: %w", err)
	}

	return exists, nil
}

func (r *linkRepository) IncrementClicks(ctx context.Context, code string) (string, error) {
	query := `
		UPDATE links
		SET total_clicks = total_clicks + 1, last_clicked_at = $2
		WHERE short_code = $1
		RETURNING target_url
	`

	var targetURL string
	err := r.db.Pool.QueryRow(ctx, query, code, time.Now().UTC()).Scan(&targetURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to count click: %w", err)
	}

	return targetURL, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
