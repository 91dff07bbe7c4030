package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-store-service/internal/domain/user"
	apperrors "user-store-service/pkg/errors"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCache is a mock implementation of cache.UserCache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockCache) Generation(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, u *domain.User, gen int64) (bool, error) {
	args := m.Called(ctx, u, gen)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCache) DeleteMultiple(ctx context.Context, ids ...int64) error {
	return m.Called(ctx, ids).Error(0)
}

type txMarker struct{}

// fakeTx records how many transactions were opened and how each one ended.
type fakeTx struct {
	begun      int
	committed  int
	rolledBack int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.begun++
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		f.rolledBack++
		return err
	}
	f.committed++
	return nil
}

// inTx matches contexts handed out by fakeTx.
var inTx = mock.MatchedBy(func(ctx context.Context) bool {
	v, _ := ctx.Value(txMarker{}).(bool)
	return v
})

func setupTestUsecase(t *testing.T) (*Usecase, *MockRepository, *fakeTx) {
	mockRepo := new(MockRepository)
	tx := &fakeTx{}
	uc := New(mockRepo, tx, nil, zaptest.NewLogger(t))
	return uc, mockRepo, tx
}

// ==================== READ TESTS ====================

func TestFindAll(t *testing.T) {
	uc, mockRepo, tx := setupTestUsecase(t)
	ctx := context.Background()
	users := []domain.User{
		{ID: 1, Name: "Ada", Email: "ada@example.com"},
		{ID: 2, Name: "Grace", Email: "grace@example.com"},
	}

	mockRepo.On("FindAll", ctx).Return(users, nil)

	got, err := uc.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, got)
	assert.Zero(t, tx.begun, "reads must not open a transaction")
	mockRepo.AssertExpectations(t)
}

func TestFindAll_RepositoryError(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("FindAll", ctx).Return(nil, apperrors.NewInternalError("failed to list users", errors.New("db down")))

	got, err := uc.FindAll(ctx)
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestFindByID(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		repoRes *domain.User
		repoErr error
		wantErr bool
	}{
		{
			name:    "found",
			id:      1,
			repoRes: &domain.User{ID: 1, Name: "Ada", Email: "ada@example.com"},
		},
		{
			name: "absent",
			id:   99,
		},
		{
			name:    "repository error",
			id:      1,
			repoErr: apperrors.NewInternalError("failed to get user", errors.New("db down")),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, mockRepo, _ := setupTestUsecase(t)
			ctx := context.Background()

			if tt.repoRes != nil {
				mockRepo.On("FindByID", ctx, tt.id).Return(tt.repoRes, tt.repoErr)
			} else {
				mockRepo.On("FindByID", ctx, tt.id).Return(nil, tt.repoErr)
			}

			got, err := uc.FindByID(ctx, tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.repoRes, got)
		})
	}
}

func TestFindByEmail(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()
	ada := &domain.User{ID: 1, Name: "Ada", Email: "ada@example.com"}

	mockRepo.On("FindByEmail", ctx, "ada@example.com").Return(ada, nil)
	mockRepo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, nil)

	got, err := uc.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, ada, got)

	got, err = uc.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExistsByID(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("ExistsByID", ctx, int64(1)).Return(true, nil)
	mockRepo.On("ExistsByID", ctx, int64(2)).Return(false, nil)
	mockRepo.On("ExistsByID", ctx, int64(3)).Return(false, errors.New("db down"))

	ok, err := uc.ExistsByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = uc.ExistsByID(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = uc.ExistsByID(ctx, 3)
	assert.Error(t, err)
	assert.False(t, ok)
}

// ==================== SAVE TESTS ====================

func TestSave_NewUser(t *testing.T) {
	uc, mockRepo, tx := setupTestUsecase(t)
	ctx := context.Background()
	in := &domain.User{Name: "Ada", Email: "ada@example.com"}
	out := &domain.User{ID: 1, Name: "Ada", Email: "ada@example.com"}

	mockRepo.On("FindByEmail", inTx, "ada@example.com").Return(nil, nil)
	mockRepo.On("Save", inTx, in).Return(out, nil)

	got, err := uc.Save(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, out, got)
	assert.Equal(t, 1, tx.begun)
	assert.Equal(t, 1, tx.committed)
	mockRepo.AssertExpectations(t)
}

func TestSave_UpdateKeepsOwnEmail(t *testing.T) {
	uc, mockRepo, tx := setupTestUsecase(t)
	ctx := context.Background()
	existing := &domain.User{ID: 1, Name: "Ada", Email: "ada@example.com"}
	in := &domain.User{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com"}

	mockRepo.On("FindByEmail", inTx, "ada@example.com").Return(existing, nil)
	mockRepo.On("Save", inTx, in).Return(in, nil)

	got, err := uc.Save(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, 1, tx.committed)
}

func TestSave_EmailTakenByAnotherUser(t *testing.T) {
	uc, mockRepo, tx := setupTestUsecase(t)
	ctx := context.Background()
	existing := &domain.User{ID: 2, Name: "Grace", Email: "shared@example.com"}

	tests := []struct {
		name string
		in   *domain.User
	}{
		{name: "new user", in: &domain.User{Name: "Ada", Email: "shared@example.com"}},
		{name: "existing user", in: &domain.User{ID: 1, Name: "Ada", Email: "shared@example.com"}},
	}

	mockRepo.On("FindByEmail", inTx, "shared@example.com").Return(existing, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.Save(ctx, tt.in)
			assert.Nil(t, got)
			assert.True(t, apperrors.IsAlreadyExists(err))
			assert.Contains(t, err.Error(), "email already exists")
		})
	}

	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Equal(t, 2, tx.rolledBack)
	assert.Zero(t, tx.committed)
}

func TestSave_RepositoryErrorRollsBack(t *testing.T) {
	uc, mockRepo, tx := setupTestUsecase(t)
	ctx := context.Background()
	in := &domain.User{Name: "Ada", Email: "ada@example.com"}
	dbErr := apperrors.NewInternalError("failed to save user", errors.New("disk full"))

	mockRepo.On("FindByEmail", inTx, "ada@example.com").Return(nil, nil)
	mockRepo.On("Save", inTx, in).Return(nil, dbErr)

	got, err := uc.Save(ctx, in)
	assert.ErrorIs(t, err, dbErr)
	assert.Nil(t, got)
	assert.Equal(t, 1, tx.rolledBack)
}

func TestSave_LookupErrorRollsBack(t *testing.T) {
	uc, mockRepo, tx := setupTestUsecase(t)
	ctx := context.Background()
	in := &domain.User{Name: "Ada", Email: "ada@example.com"}

	mockRepo.On("FindByEmail", inTx, "ada@example.com").Return(nil, errors.New("db down"))

	got, err := uc.Save(ctx, in)
	assert.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, tx.rolledBack)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSave_NilUser(t *testing.T) {
	uc, _, tx := setupTestUsecase(t)

	got, err := uc.Save(context.Background(), nil)
	var invalid *apperrors.ValidationError
	assert.ErrorAs(t, err, &invalid)
	assert.Nil(t, got)
	assert.Zero(t, tx.begun)
}

// ==================== DELETE TESTS ====================

func TestDeleteByID_Success(t *testing.T) {
	uc, mockRepo, tx := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("DeleteByID", inTx, int64(1)).Return(nil)

	require.NoError(t, uc.DeleteByID(ctx, 1))
	assert.Equal(t, 1, tx.committed)
	mockRepo.AssertExpectations(t)
}

func TestDeleteByID_NotFound(t *testing.T) {
	uc, mockRepo, tx := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("DeleteByID", inTx, int64(42)).Return(apperrors.NewNotFoundError("user", "user not found: id=42"))

	err := uc.DeleteByID(ctx, 42)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, 1, tx.rolledBack)
}

// ==================== CACHE INVALIDATION TESTS ====================

func TestCacheInvalidatedAfterCommit(t *testing.T) {
	mockRepo := new(MockRepository)
	mockCache := new(MockCache)
	tx := &fakeTx{}
	uc := New(mockRepo, tx, mockCache, zaptest.NewLogger(t))
	ctx := context.Background()

	in := &domain.User{ID: 3, Name: "Ada", Email: "ada@example.com"}
	mockRepo.On("FindByEmail", inTx, "ada@example.com").Return(nil, nil)
	mockRepo.On("Save", inTx, in).Return(in, nil)
	mockRepo.On("DeleteByID", inTx, int64(3)).Return(nil)

	// invalidation runs outside the transaction
	mockCache.On("Delete", ctx, int64(3)).Return(nil).Twice()

	_, err := uc.Save(ctx, in)
	require.NoError(t, err)
	require.NoError(t, uc.DeleteByID(ctx, 3))

	mockCache.AssertExpectations(t)
}

func TestCacheNotTouchedWhenWriteFails(t *testing.T) {
	mockRepo := new(MockRepository)
	mockCache := new(MockCache)
	uc := New(mockRepo, &fakeTx{}, mockCache, zaptest.NewLogger(t))
	ctx := context.Background()

	mockRepo.On("DeleteByID", inTx, int64(3)).Return(apperrors.NewNotFoundError("user", "user not found: id=3"))

	assert.Error(t, uc.DeleteByID(ctx, 3))
	mockCache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCacheInvalidationFailureDoesNotFailWrite(t *testing.T) {
	mockRepo := new(MockRepository)
	mockCache := new(MockCache)
	uc := New(mockRepo, &fakeTx{}, mockCache, zaptest.NewLogger(t))
	ctx := context.Background()

	mockRepo.On("DeleteByID", inTx, int64(3)).Return(nil)
	mockCache.On("Delete", ctx, int64(3)).Return(errors.New("redis down"))

	assert.NoError(t, uc.DeleteByID(ctx, 3))
}
