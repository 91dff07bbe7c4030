package user

import (
	"context"

	"go.uber.org/zap"

	"user-store-service/internal/adapter/cache"
	domain "user-store-service/internal/domain/user"
	apperrors "user-store-service/pkg/errors"
	"user-store-service/pkg/logger"
)

// Usecase implements the user service on top of a Repository.
// Reads are plain delegations; Save and DeleteByID each run inside exactly one
// transaction obtained from the TxManager.
type Usecase struct {
	repo  Repository      // Repository for data access
	tx    TxManager       // Transaction boundary for writes
	cache cache.UserCache // Optional cache invalidated after committed writes
	log   *zap.Logger     // Logger for structured logging
}

var _ Service = (*Usecase)(nil)

// New creates a new instance of Usecase.
// If c is nil, no cache invalidation is performed.
func New(r Repository, tx TxManager, c cache.UserCache, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, tx: tx, cache: c, log: log}
}

// FindAll returns every persisted user.
func (uc *Usecase) FindAll(ctx context.Context) ([]domain.User, error) {
	users, err := uc.repo.FindAll(ctx)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to list users", zap.Error(err))
		return nil, err
	}
	return users, nil
}

// FindByID returns the user with the given id, or nil when there is none.
func (uc *Usecase) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to find user", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return u, nil
}

// FindByEmail returns the user whose email matches exactly, or nil when there is none.
// Email is unique in the store, so at most one record can match.
func (uc *Usecase) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := uc.repo.FindByEmail(ctx, email)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to find user by email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return u, nil
}

// ExistsByID reports whether a user with the given id is persisted.
func (uc *Usecase) ExistsByID(ctx context.Context, id int64) (bool, error) {
	ok, err := uc.repo.ExistsByID(ctx, id)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to check user existence", zap.Int64("id", id), zap.Error(err))
		return false, err
	}
	return ok, nil
}

// Save inserts u when it has no id and updates the row with u's id otherwise;
// an id with no row is inserted under a generated id.
// The email uniqueness check and the write share one transaction.
func (uc *Usecase) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	log := logger.WithContext(ctx, uc.log)
	if u == nil {
		return nil, apperrors.NewValidationError("user", "must not be nil")
	}

	log.Info("saving user", zap.Int64("id", u.ID), zap.String("email", u.Email))

	var saved *domain.User
	err := uc.tx.WithinTx(ctx, func(txCtx context.Context) error {
		existing, err := uc.repo.FindByEmail(txCtx, u.Email)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != u.ID {
			log.Warn("email already exists", zap.String("email", u.Email), zap.Int64("existing_id", existing.ID))
			return apperrors.NewAlreadyExistsError("user", "email already exists")
		}

		saved, err = uc.repo.Save(txCtx, u)
		return err
	})
	if err != nil {
		if !apperrors.IsAlreadyExists(err) {
			log.Error("failed to save user", zap.Int64("id", u.ID), zap.Error(err))
		}
		return nil, err
	}

	uc.invalidate(ctx, saved.ID, "save")
	return saved, nil
}

// DeleteByID removes the user with the given id.
// A missing id is reported as a NotFoundError, so a repeated delete fails.
func (uc *Usecase) DeleteByID(ctx context.Context, id int64) error {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.Int64("id", id))

	err := uc.tx.WithinTx(ctx, func(txCtx context.Context) error {
		return uc.repo.DeleteByID(txCtx, id)
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			log.Warn("user to delete not found", zap.Int64("id", id))
		} else {
			log.Error("failed to delete user", zap.Int64("id", id), zap.Error(err))
		}
		return err
	}

	uc.invalidate(ctx, id, "delete")
	return nil
}

// invalidate drops the cached copy of a user once its write has committed.
func (uc *Usecase) invalidate(ctx context.Context, id int64, op string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, id); err != nil {
		uc.log.Warn("failed to invalidate cache after "+op, zap.Int64("id", id), zap.Error(err))
	}
}
