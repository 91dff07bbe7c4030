package grpc

import (
	"context"
	"math"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "user-store-service/internal/domain/user"
	"user-store-service/internal/usecase/user"
	apperrors "user-store-service/pkg/errors"
	"user-store-service/pkg/logger"
)

// UserServer implements the gRPC user service on top of user.Service.
type UserServer struct {
	svc user.Service
	log *zap.Logger
}

var _ UserServiceServer = (*UserServer)(nil)

// NewUserServer creates a new gRPC user service server
func NewUserServer(svc user.Service, log *zap.Logger) *UserServer {
	return &UserServer{svc: svc, log: log}
}

// FindAll handles gRPC FindAll request
func (s *UserServer) FindAll(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	users, err := s.svc.FindAll(ctx)
	if err != nil {
		return nil, s.toStatusErr(ctx, err)
	}

	values := make([]*structpb.Value, len(users))
	for i := range users {
		values[i] = structpb.NewStructValue(UserToStruct(&users[i]))
	}
	return &structpb.ListValue{Values: values}, nil
}

// FindByID handles gRPC FindByID request; an absent user is a null value
func (s *UserServer) FindByID(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Value, error) {
	u, err := s.svc.FindByID(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatusErr(ctx, err)
	}
	return userToValue(u), nil
}

// FindByEmail handles gRPC FindByEmail request; an absent user is a null value
func (s *UserServer) FindByEmail(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Value, error) {
	u, err := s.svc.FindByEmail(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatusErr(ctx, err)
	}
	return userToValue(u), nil
}

// ExistsByID handles gRPC ExistsByID request
func (s *UserServer) ExistsByID(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	ok, err := s.svc.ExistsByID(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatusErr(ctx, err)
	}
	return wrapperspb.Bool(ok), nil
}

// Save handles gRPC Save request
func (s *UserServer) Save(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	u, err := UserFromStruct(req)
	if err != nil {
		return nil, s.toStatusErr(ctx, err)
	}

	saved, err := s.svc.Save(ctx, u)
	if err != nil {
		return nil, s.toStatusErr(ctx, err)
	}
	return UserToStruct(saved), nil
}

// DeleteByID handles gRPC DeleteByID request
func (s *UserServer) DeleteByID(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := s.svc.DeleteByID(ctx, req.GetValue()); err != nil {
		return nil, s.toStatusErr(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *UserServer) toStatusErr(ctx context.Context, err error) error {
	st := apperrors.ToStatus(err)
	logger.WithContext(ctx, s.log).Debug("rpc failed", zap.String("code", st.Code().String()), zap.Error(err))
	return st.Err()
}

// UserToStruct encodes u as a Struct; the id is a decimal string so int64 survives JSON-style numbers.
func UserToStruct(u *domain.User) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":    structpb.NewStringValue(strconv.FormatInt(u.ID, 10)),
		"name":  structpb.NewStringValue(u.Name),
		"email": structpb.NewStringValue(u.Email),
	}}
}

func userToValue(u *domain.User) *structpb.Value {
	if u == nil {
		return structpb.NewNullValue()
	}
	return structpb.NewStructValue(UserToStruct(u))
}

// UserFromStruct decodes a user Struct. The id may be a decimal string or an
// integral number and is never negative; a missing, null or empty id marks a
// new user.
func UserFromStruct(s *structpb.Struct) (*domain.User, error) {
	fields := s.GetFields()

	id, err := idFromValue(fields["id"])
	if err != nil {
		return nil, err
	}
	name, err := stringField(fields, "name")
	if err != nil {
		return nil, err
	}
	email, err := stringField(fields, "email")
	if err != nil {
		return nil, err
	}

	return &domain.User{ID: id, Name: name, Email: email}, nil
}

// UserFromValue decodes the result of FindByID and FindByEmail; null means absent.
func UserFromValue(v *structpb.Value) (*domain.User, error) {
	switch kind := v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StructValue:
		return UserFromStruct(kind.StructValue)
	default:
		return nil, apperrors.NewValidationError("user", "expected struct or null")
	}
}

func idFromValue(v *structpb.Value) (int64, error) {
	switch kind := v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return 0, nil
	case *structpb.Value_StringValue:
		if kind.StringValue == "" {
			return 0, nil
		}
		id, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, apperrors.NewValidationError("id", "must be a decimal integer")
		}
		if id < 0 {
			return 0, apperrors.NewValidationError("id", "must not be negative")
		}
		return id, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n >= math.MaxInt64 {
			return 0, apperrors.NewValidationError("id", "must be an integer")
		}
		if n < 0 {
			return 0, apperrors.NewValidationError("id", "must not be negative")
		}
		return int64(n), nil
	default:
		return 0, apperrors.NewValidationError("id", "must be a string or number")
	}
}

func stringField(fields map[string]*structpb.Value, name string) (string, error) {
	switch kind := fields[name].GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return kind.StringValue, nil
	default:
		return "", apperrors.NewValidationError(name, "must be a string")
	}
}
