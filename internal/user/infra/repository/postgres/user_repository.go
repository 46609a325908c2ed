package postgres

import (
	"context"
	"errors"

	"github.com/bidstation/engine/internal/user/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository implements domain.UserRepository for PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, display_name, role, created_at FROM users WHERE id = $1`

	user := &domain.User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.DisplayName,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) Save(ctx context.Context, u *domain.User) error {
	query := `
        INSERT INTO users (id, display_name, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE
        SET display_name = EXCLUDED.display_name,
            role = EXCLUDED.role;
    `
	_, err := r.pool.Exec(ctx, query, u.ID, u.DisplayName, u.Role)
	return err
}
