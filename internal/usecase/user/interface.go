package user

import (
	"context"

	domain "user-store-service/internal/domain/user"
)

// Service defines the caller-facing API for user persistence.
// Absent records are reported as a nil user with a nil error.
type Service interface {
	FindAll(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Save(ctx context.Context, u *domain.User) (*domain.User, error)
	DeleteByID(ctx context.Context, id int64) error
}

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., PostgreSQL, SQLite) to be used interchangeably.
type Repository interface {
	FindAll(ctx context.Context) ([]domain.User, error)                  // All users, store order
	FindByID(ctx context.Context, id int64) (*domain.User, error)        // nil, nil when absent
	FindByEmail(ctx context.Context, email string) (*domain.User, error) // nil, nil when absent
	ExistsByID(ctx context.Context, id int64) (bool, error)              // Key lookup only
	Save(ctx context.Context, u *domain.User) (*domain.User, error)      // Update by ID, else insert under a new ID
	DeleteByID(ctx context.Context, id int64) error                      // NotFoundError when no row matched
}

// TxManager runs a function inside a single store transaction.
// The transaction is carried by the context passed to fn; repository calls made
// with that context join it. It commits when fn returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
