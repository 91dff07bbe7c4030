package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-store-service/internal/domain/user"
	apperrors "user-store-service/pkg/errors"
)

// UserRepoPG implements the user Repository using GORM.
// The same code runs against PostgreSQL in production and SQLite when embedded.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

const (
	// emailIndex is the unique index on users.email.
	emailIndex = "idx_users_email"
	// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
	uniqueViolation = "23505"
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`                      // Unique identifier with auto-increment
	Name  string `gorm:"not null;default:''"`                           // User's display name
	Email string `gorm:"not null;uniqueIndex:idx_users_email;size:320"` // User's unique email address
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Migrate creates or updates the users table from UserSchema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// conn returns the transaction bound to ctx, or the root connection.
func (r *UserRepoPG) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

// FindAll retrieves every user ordered by ID.
func (r *UserRepoPG) FindAll(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.conn(ctx).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list users", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}

	return users, nil
}

// FindByID retrieves a user by their unique ID.
// It returns nil without an error when no user has that ID.
func (r *UserRepoPG) FindByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.conn(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, nil
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, apperrors.NewInternalError("failed to get user", err)
	}

	u := model.toDomain()
	return &u, nil
}

// FindByEmail retrieves a user by their email address.
// It returns nil without an error when no user has that email.
func (r *UserRepoPG) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.conn(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, apperrors.NewInternalError("failed to get user by email", err)
	}

	u := model.toDomain()
	return &u, nil
}

// ExistsByID checks the primary key index without loading the row.
func (r *UserRepoPG) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&UserSchema{}).Where("id = ?", id).Count(&count).Error; err != nil {
		r.log.Error("failed to check user existence in db", zap.Error(err), zap.Int64("id", id))
		return false, apperrors.NewInternalError("failed to check user existence", err)
	}

	return count > 0, nil
}

// Save inserts a new user when u has no ID, and otherwise updates the row with
// u's ID. When no row has that ID the user is inserted under an ID generated by
// the store, as for a new user. The returned user carries the stored ID; u
// itself is not modified.
func (r *UserRepoPG) Save(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, apperrors.NewValidationError("user", "must not be nil")
	}

	db := r.conn(ctx)
	if !u.IsNew() {
		res := db.Model(&UserSchema{}).Where("id = ?", u.ID).Updates(map[string]any{
			"name":  u.Name,
			"email": u.Email,
		})
		if res.Error != nil {
			return nil, r.saveError(res.Error, u)
		}
		if res.RowsAffected > 0 {
			r.log.Info("user updated in db", zap.Int64("id", u.ID))
			return &user.User{ID: u.ID, Name: u.Name, Email: u.Email}, nil
		}
		r.log.Debug("no user with id, inserting with a generated id", zap.Int64("id", u.ID))
	}

	model := UserSchema{Name: u.Name, Email: u.Email}
	if err := db.Create(&model).Error; err != nil {
		return nil, r.saveError(err, u)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	saved := model.toDomain()
	return &saved, nil
}

// saveError maps a failed write: a violation of the email index is AlreadyExists,
// anything else is internal.
func (r *UserRepoPG) saveError(err error, u *user.User) error {
	if isEmailConflict(err) {
		r.log.Warn("duplicate email rejected by db", zap.String("email", u.Email), zap.Int64("id", u.ID))
		return apperrors.NewAlreadyExistsError("user", "email already exists")
	}
	r.log.Error("failed to save user in db", zap.Error(err), zap.Int64("id", u.ID), zap.String("email", u.Email))
	return apperrors.NewInternalError("failed to save user", err)
}

// isEmailConflict reports whether err is a unique violation of the email index.
func isEmailConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && pgErr.ConstraintName == emailIndex
	}
	// SQLite names the violated column instead of the index
	return strings.Contains(err.Error(), "UNIQUE constraint failed: users.email")
}

// DeleteByID removes a user from the database by ID.
// It returns a NotFoundError when no row was deleted.
func (r *UserRepoPG) DeleteByID(ctx context.Context, id int64) error {
	res := r.conn(ctx).Delete(&UserSchema{}, id)
	if res.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", id))
		return apperrors.NewInternalError("failed to delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}

func (m UserSchema) toDomain() user.User {
	return user.User{
		ID:    m.ID,
		Name:  m.Name,
		Email: m.Email,
	}
}
