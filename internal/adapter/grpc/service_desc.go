package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "users.v1.UserService"

// Full method names of the UserService RPCs.
const (
	FindAllMethod     = "/" + ServiceName + "/FindAll"
	FindByIDMethod    = "/" + ServiceName + "/FindByID"
	FindByEmailMethod = "/" + ServiceName + "/FindByEmail"
	ExistsByIDMethod  = "/" + ServiceName + "/ExistsByID"
	SaveMethod        = "/" + ServiceName + "/Save"
	DeleteByIDMethod  = "/" + ServiceName + "/DeleteByID"
)

// UserServiceServer is the server API for the users.v1.UserService service.
// Messages are protobuf well-known types; a user travels as a Struct with
// "id" (decimal string), "name" and "email".
type UserServiceServer interface {
	FindAll(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	FindByID(context.Context, *wrapperspb.Int64Value) (*structpb.Value, error)
	FindByEmail(context.Context, *wrapperspb.StringValue) (*structpb.Value, error)
	ExistsByID(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	Save(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteByID(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

// RegisterUserServiceServer registers srv on s.
func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserServiceDesc, srv)
}

// UserServiceDesc is the grpc.ServiceDesc for users.v1.UserService.
var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FindAll", Handler: findAllHandler},
		{MethodName: "FindByID", Handler: findByIDHandler},
		{MethodName: "FindByEmail", Handler: findByEmailHandler},
		{MethodName: "ExistsByID", Handler: existsByIDHandler},
		{MethodName: "Save", Handler: saveHandler},
		{MethodName: "DeleteByID", Handler: deleteByIDHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "users/v1/user_service.proto",
}

func findAllHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).FindAll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FindAllMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UserServiceServer).FindAll(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func findByIDHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).FindByID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FindByIDMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UserServiceServer).FindByID(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func findByEmailHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).FindByEmail(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FindByEmailMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UserServiceServer).FindByEmail(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func existsByIDHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).ExistsByID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExistsByIDMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UserServiceServer).ExistsByID(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func saveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).Save(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SaveMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UserServiceServer).Save(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteByIDHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).DeleteByID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DeleteByIDMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UserServiceServer).DeleteByID(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}
