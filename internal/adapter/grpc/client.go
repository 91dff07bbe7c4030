package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "user-store-service/internal/domain/user"
	apperrors "user-store-service/pkg/errors"
)

// UserServiceClient calls users.v1.UserService and converts the wire messages
// back into domain users. Absent users come back as nil without an error.
type UserServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewUserServiceClient creates a client over an established connection.
func NewUserServiceClient(cc grpc.ClientConnInterface) *UserServiceClient {
	return &UserServiceClient{cc: cc}
}

// FindAll returns every stored user.
func (c *UserServiceClient) FindAll(ctx context.Context, opts ...grpc.CallOption) ([]domain.User, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, FindAllMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		u, err := UserFromValue(v)
		if err != nil {
			return nil, err
		}
		if u != nil {
			users = append(users, *u)
		}
	}
	return users, nil
}

// FindByID returns the user with the given id, or nil when there is none.
func (c *UserServiceClient) FindByID(ctx context.Context, id int64, opts ...grpc.CallOption) (*domain.User, error) {
	out := new(structpb.Value)
	if err := c.cc.Invoke(ctx, FindByIDMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return nil, err
	}
	return UserFromValue(out)
}

// FindByEmail returns the user with exactly this email, or nil when there is none.
func (c *UserServiceClient) FindByEmail(ctx context.Context, email string, opts ...grpc.CallOption) (*domain.User, error) {
	out := new(structpb.Value)
	if err := c.cc.Invoke(ctx, FindByEmailMethod, wrapperspb.String(email), out, opts...); err != nil {
		return nil, err
	}
	return UserFromValue(out)
}

// ExistsByID reports whether a user with the given id is stored.
func (c *UserServiceClient) ExistsByID(ctx context.Context, id int64, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, ExistsByIDMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Save creates u when it has no id and updates it otherwise, returning the
// stored user. A nil user fails with InvalidArgument without a call.
func (c *UserServiceClient) Save(ctx context.Context, u *domain.User, opts ...grpc.CallOption) (*domain.User, error) {
	if u == nil {
		return nil, apperrors.ToStatus(apperrors.NewValidationError("user", "must not be nil")).Err()
	}

	in := UserToStruct(u)
	if u.IsNew() {
		delete(in.Fields, "id")
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SaveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return UserFromStruct(out)
}

// DeleteByID removes the user with the given id; a missing id fails with NotFound.
func (c *UserServiceClient) DeleteByID(ctx context.Context, id int64, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, DeleteByIDMethod, wrapperspb.Int64(id), new(emptypb.Empty), opts...)
}
