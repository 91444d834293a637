// Package grpc - внутренний gRPC API каталога.
// Сообщения передаются как google.protobuf.Struct, поэтому сгенерированный код не нужен.
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName - полное имя gRPC сервиса каталога
const ServiceName = "catalog.v1.CatalogService"

// Имена методов
const (
	MethodGetMovieInfo     = "GetMovieInfo"
	MethodCheckMovieExists = "CheckMovieExists"
	MethodApplyReaction    = "ApplyReaction"
	MethodRecommend        = "Recommend"
	MethodTrending         = "Trending"
)

// CatalogServer - серверная сторона CatalogService
type CatalogServer interface {
	GetMovieInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CheckMovieExists(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error)
	ApplyReaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Trending(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc описывает CatalogService для grpc.Server
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodGetMovieInfo, Handler: unary(MethodGetMovieInfo, CatalogServer.GetMovieInfo)},
		{MethodName: MethodCheckMovieExists, Handler: unary(MethodCheckMovieExists, CatalogServer.CheckMovieExists)},
		{MethodName: MethodApplyReaction, Handler: unary(MethodApplyReaction, CatalogServer.ApplyReaction)},
		{MethodName: MethodRecommend, Handler: unary(MethodRecommend, CatalogServer.Recommend)},
		{MethodName: MethodTrending, Handler: unary(MethodTrending, CatalogServer.Trending)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/catalog.proto",
}

// RegisterCatalogServer регистрирует реализацию CatalogService
func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Resp proto.Message](method string, call func(CatalogServer, context.Context, *structpb.Struct) (Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
