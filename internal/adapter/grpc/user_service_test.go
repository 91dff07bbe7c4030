package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"gorm.io/gorm"

	"user-store-service/internal/adapter/db/postgres"
	domain "user-store-service/internal/domain/user"
	"user-store-service/internal/usecase/user"
	apperrors "user-store-service/pkg/errors"
)

// startServer serves svc over an in-memory listener and returns a connected client.
func startServer(t *testing.T, svc user.Service) *UserServiceClient {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)

	s := grpc.NewServer()
	RegisterUserServiceServer(s, NewUserServer(svc, zaptest.NewLogger(t)))
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return NewUserServiceClient(conn)
}

func newStoreService(t *testing.T) user.Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	require.NoError(t, postgres.Migrate(db))

	log := zaptest.NewLogger(t)
	return user.New(postgres.NewUserRepoPG(db, log), postgres.NewTxManager(db, log), nil, log)
}

func TestUserService_RoundTrip(t *testing.T) {
	client := startServer(t, newStoreService(t))
	ctx := context.Background()

	saved, err := client.Save(ctx, &domain.User{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	byID, err := client.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, byID)

	byEmail, err := client.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, saved, byEmail)

	ok, err := client.ExistsByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := client.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.User{*saved}, all)

	updated, err := client.Save(ctx, &domain.User{ID: saved.ID, Name: "B", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Name)
	assert.Equal(t, saved.ID, updated.ID)

	require.NoError(t, client.DeleteByID(ctx, saved.ID))

	absent, err := client.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Nil(t, absent)

	all, err = client.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUserService_ErrorCodes(t *testing.T) {
	client := startServer(t, newStoreService(t))
	ctx := context.Background()

	_, err := client.Save(ctx, &domain.User{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)

	_, err = client.Save(ctx, &domain.User{Name: "Other", Email: "a@x.com"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	err = client.DeleteByID(ctx, 999)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

// mockService is a mock implementation of user.Service
type mockService struct {
	mock.Mock
}

func (m *mockService) FindAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockService) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockService) ExistsByID(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockService) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockService) DeleteByID(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func TestUserService_InternalErrorsHideCause(t *testing.T) {
	svc := new(mockService)
	client := startServer(t, svc)
	ctx := context.Background()

	svc.On("FindAll", mock.Anything).
		Return(nil, apperrors.NewInternalError("failed to list users", errors.New("password authentication failed")))
	svc.On("ExistsByID", mock.Anything, int64(1)).Return(false, errors.New("unexpected"))

	_, err := client.FindAll(ctx)
	st := status.Convert(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "failed to list users", st.Message())

	_, err = client.ExistsByID(ctx, 1)
	st = status.Convert(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal server error", st.Message())
}

func TestUserFromStruct(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		want    *domain.User
		wantErr bool
	}{
		{
			name:   "missing id is new",
			fields: map[string]any{"name": "A", "email": "a@x.com"},
			want:   &domain.User{Name: "A", Email: "a@x.com"},
		},
		{
			name:   "empty id is new",
			fields: map[string]any{"id": "", "name": "A", "email": "a@x.com"},
			want:   &domain.User{Name: "A", Email: "a@x.com"},
		},
		{
			name:   "string id keeps full precision",
			fields: map[string]any{"id": "9007199254740993", "name": "A", "email": "a@x.com"},
			want:   &domain.User{ID: 9007199254740993, Name: "A", Email: "a@x.com"},
		},
		{
			name:   "numeric id",
			fields: map[string]any{"id": 42, "email": "a@x.com"},
			want:   &domain.User{ID: 42, Email: "a@x.com"},
		},
		{
			name:    "fractional id",
			fields:  map[string]any{"id": 1.5},
			wantErr: true,
		},
		{
			name:    "negative string id",
			fields:  map[string]any{"id": "-3", "email": "a@x.com"},
			wantErr: true,
		},
		{
			name:    "negative numeric id",
			fields:  map[string]any{"id": -1, "email": "a@x.com"},
			wantErr: true,
		},
		{
			name:    "non numeric string id",
			fields:  map[string]any{"id": "abc"},
			wantErr: true,
		},
		{
			name:    "email of wrong type",
			fields:  map[string]any{"email": true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)

			got, err := UserFromStruct(s)
			if tt.wantErr {
				assert.Equal(t, codes.InvalidArgument, status.Code(apperrors.ToStatus(err).Err()))
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserService_SaveRejectsNegativeID(t *testing.T) {
	svc := new(mockService)
	client := startServer(t, svc)

	in, err := structpb.NewStruct(map[string]any{"id": "-7", "name": "A", "email": "a@x.com"})
	require.NoError(t, err)

	err = client.cc.Invoke(context.Background(), SaveMethod, in, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	svc.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUserServiceClient_SaveNil(t *testing.T) {
	svc := new(mockService)
	client := startServer(t, svc)

	saved, err := client.Save(context.Background(), nil)
	assert.Nil(t, saved)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	svc.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUserFromValue_Null(t *testing.T) {
	u, err := UserFromValue(structpb.NewNullValue())
	require.NoError(t, err)
	assert.Nil(t, u)
}
