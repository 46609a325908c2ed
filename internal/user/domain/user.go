package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the minimal projection of the externally-managed account that the
// bidding core needs: a stable identity and a role claim. Registration and
// profile management live outside this service.
type User struct {
	ID          uuid.UUID
	DisplayName string
	Role        string
	CreatedAt   time.Time
}

type UserRepository interface {
	// GetByID returns nil, nil when the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Save(ctx context.Context, u *User) error
}
