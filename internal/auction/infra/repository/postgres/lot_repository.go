package postgres

import (
	"context"
	"errors"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LotRepository implements domain.LotRepository for PostgreSQL. The Update
// method is the compare-and-set at the heart of the bid path.
type LotRepository struct {
	pool *pgxpool.Pool
}

func NewLotRepository(pool *pgxpool.Pool) *LotRepository {
	return &LotRepository{pool: pool}
}

func (r *LotRepository) Save(ctx context.Context, tx domain.Tx, lot *domain.Lot) error {
	query := `
        INSERT INTO lots (id, auction_id, name, description, base_price, current_price, status, current_leader_id, last_bid_at, version)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := pgxTxFrom(tx).Exec(ctx, query,
		lot.ID,
		lot.AuctionID,
		lot.Name,
		lot.Description,
		lot.BasePrice,
		lot.CurrentPrice,
		lot.Status,
		lot.CurrentLeaderID,
		lot.LastBidAt,
		lot.Version,
	)
	return err
}

// Update writes the lot guarded by the version check. The UPDATE takes the
// row lock, so concurrent writers on the same lot serialize here; whoever
// commits second sees zero rows and gets ErrVersionConflict.
func (r *LotRepository) Update(ctx context.Context, tx domain.Tx, lot *domain.Lot, expectedVersion int64) error {
	query := `
        UPDATE lots
        SET
            current_price = $1,
            status = $2,
            current_leader_id = $3,
            last_bid_at = $4,
            version = version + 1,
            updated_at = NOW()
        WHERE id = $5 AND version = $6
    `
	ct, err := pgxTxFrom(tx).Exec(ctx, query,
		lot.CurrentPrice,
		lot.Status,
		lot.CurrentLeaderID,
		lot.LastBidAt,
		lot.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	lot.Version = expectedVersion + 1
	return nil
}

func (r *LotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lot, error) {
	query := `
        SELECT id, auction_id, name, description, base_price, current_price, status, current_leader_id, last_bid_at, version, created_at, updated_at
        FROM lots
        WHERE id = $1
    `
	lot := &domain.Lot{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&lot.ID,
		&lot.AuctionID,
		&lot.Name,
		&lot.Description,
		&lot.BasePrice,
		&lot.CurrentPrice,
		&lot.Status,
		&lot.CurrentLeaderID,
		&lot.LastBidAt,
		&lot.Version,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLotNotFound
		}
		return nil, err
	}

	return lot, nil
}

// ListByAuction returns lots in creation order, which doubles as the
// sequential bidding order.
func (r *LotRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Lot, error) {
	query := `
        SELECT id, auction_id, name, description, base_price, current_price, status, current_leader_id, last_bid_at, version, created_at, updated_at
        FROM lots
        WHERE auction_id = $1
        ORDER BY created_at ASC
    `
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*domain.Lot
	for rows.Next() {
		lot := &domain.Lot{}
		err := rows.Scan(
			&lot.ID,
			&lot.AuctionID,
			&lot.Name,
			&lot.Description,
			&lot.BasePrice,
			&lot.CurrentPrice,
			&lot.Status,
			&lot.CurrentLeaderID,
			&lot.LastBidAt,
			&lot.Version,
			&lot.CreatedAt,
			&lot.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lots, nil
}
