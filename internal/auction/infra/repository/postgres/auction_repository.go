package postgres

import (
	"context"
	"errors"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuctionRepository implements domain.AuctionRepository for PostgreSQL.
type AuctionRepository struct {
	pool *pgxpool.Pool
}

func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

// Save inserts or updates an auction. INSERT ON CONFLICT covers both paths;
// created_at/updated_at use the DB defaults.
func (r *AuctionRepository) Save(ctx context.Context, tx domain.Tx, a *domain.Auction) error {
	query := `
        INSERT INTO auctions (id, title, description, kind, status, start_time, end_time, min_increment, creator_id, teams)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO UPDATE
        SET
            title = EXCLUDED.title,
            description = EXCLUDED.description,
            status = EXCLUDED.status,
            start_time = EXCLUDED.start_time,
            end_time = EXCLUDED.end_time,
            min_increment = EXCLUDED.min_increment,
            teams = EXCLUDED.teams,
            updated_at = NOW();
    `
	_, err := pgxTxFrom(tx).Exec(ctx, query,
		a.ID,
		a.Title,
		a.Description,
		a.Kind,
		a.Status,
		a.StartTime,
		a.EndTime,
		a.MinIncrement,
		a.CreatorID,
		a.Teams,
	)
	return err
}

func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `
        SELECT id, title, description, kind, status, start_time, end_time, min_increment, creator_id, teams, created_at, updated_at
        FROM auctions
        WHERE id = $1
    `
	a := &domain.Auction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Kind,
		&a.Status,
		&a.StartTime,
		&a.EndTime,
		&a.MinIncrement,
		&a.CreatorID,
		&a.Teams,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}

	return a, nil
}

func (r *AuctionRepository) List(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	query := `
        SELECT id, title, description, kind, status, start_time, end_time, min_increment, creator_id, teams, created_at, updated_at
        FROM auctions
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC
    `
	rows, err := r.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		a := &domain.Auction{}
		err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Description,
			&a.Kind,
			&a.Status,
			&a.StartTime,
			&a.EndTime,
			&a.MinIncrement,
			&a.CreatorID,
			&a.Teams,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return auctions, nil
}
