package postgres

import (
	"context"
	"errors"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BidRepository implements domain.BidRepository for PostgreSQL. The bids
// table is append-only; only the status column is ever rewritten, and only
// through the settle methods inside a lot transaction.
type BidRepository struct {
	pool *pgxpool.Pool
}

func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

func (r *BidRepository) Save(ctx context.Context, tx domain.Tx, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, lot_id, auction_id, bidder_id, amount, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := pgxTxFrom(tx).Exec(ctx, query,
		bid.ID,
		bid.LotID,
		bid.AuctionID,
		bid.BidderID,
		bid.Amount,
		bid.Status,
		bid.CreatedAt,
	)
	return err
}

func (r *BidRepository) ListByLot(ctx context.Context, lotID uuid.UUID) ([]*domain.Bid, error) {
	query := `
        SELECT id, lot_id, auction_id, bidder_id, amount, status, created_at
        FROM bids
        WHERE lot_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.pool.Query(ctx, query, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid := &domain.Bid{}
		err := rows.Scan(
			&bid.ID,
			&bid.LotID,
			&bid.AuctionID,
			&bid.BidderID,
			&bid.Amount,
			&bid.Status,
			&bid.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bids, nil
}

func (r *BidRepository) ActiveByLot(ctx context.Context, lotID uuid.UUID) (*domain.Bid, error) {
	query := `
        SELECT id, lot_id, auction_id, bidder_id, amount, status, created_at
        FROM bids
        WHERE lot_id = $1 AND status = 'active'
    `
	bid := &domain.Bid{}
	err := r.pool.QueryRow(ctx, query, lotID).Scan(
		&bid.ID,
		&bid.LotID,
		&bid.AuctionID,
		&bid.BidderID,
		&bid.Amount,
		&bid.Status,
		&bid.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return bid, nil
}

func (r *BidRepository) SettleActive(ctx context.Context, tx domain.Tx, lotID uuid.UUID, to domain.BidStatus) error {
	query := `UPDATE bids SET status = $1 WHERE lot_id = $2 AND status = 'active'`
	_, err := pgxTxFrom(tx).Exec(ctx, query, to, lotID)
	return err
}

func (r *BidRepository) SettleRemaining(ctx context.Context, tx domain.Tx, lotID uuid.UUID) error {
	query := `UPDATE bids SET status = 'lost' WHERE lot_id = $1 AND status NOT IN ('won', 'lost')`
	_, err := pgxTxFrom(tx).Exec(ctx, query, lotID)
	return err
}

func (r *BidRepository) VoidByAuction(ctx context.Context, tx domain.Tx, auctionID uuid.UUID) error {
	query := `UPDATE bids SET status = 'lost' WHERE auction_id = $1 AND status NOT IN ('won', 'lost')`
	_, err := pgxTxFrom(tx).Exec(ctx, query, auctionID)
	return err
}
