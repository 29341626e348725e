package grpcvault

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"chainboy/persist"
)

type vaultServer interface {
	upload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type server struct {
	fn persist.StoreFunc
}

// RegisterServer exposes fn as the SaveVault service on s.
func RegisterServer(s *grpc.Server, fn persist.StoreFunc) {
	s.RegisterService(&serviceDesc, &server{fn: fn})
}

func (s *server) upload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	deviceID, record, err := decodeRecord(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	tx, err := s.fn(ctx, deviceID, record)
	if err != nil {
		if _, ok := status.FromError(err); ok {
			return nil, err
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	return structpb.NewStruct(map[string]interface{}{
		fieldTransactionID: string(tx),
	})
}

func uploadHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(vaultServer).upload(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: uploadMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(vaultServer).upload(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*vaultServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Upload",
			Handler:    uploadHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chainboy/vault.proto",
}
