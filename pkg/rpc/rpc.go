// Package rpc exposes the Data Logger, Log Reader and Logger Manager
// slot surface (spec.md §6) over google.golang.org/grpc, using
// structpb.Struct as a generic, self-describing request/response
// payload instead of a generated .proto message: each slot becomes
// one gRPC method on a hand-registered grpc.ServiceDesc, the same
// shape protoc-gen-go-grpc would produce, built by hand because the
// payload needs no fixed wire schema of its own.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the gRPC service name the slot surface is registered
// under.
const ServiceName = "karabologd.SlotService"

// SlotServiceServer is implemented by Server; split out as an
// interface so the generated-style handler functions below can
// dispatch through grpc.UnaryServerInterceptor without depending on
// the concrete Server type.
type SlotServiceServer interface {
	SlotGetPropertyHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SlotGetConfigurationFromPast(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SlotGetBadData(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SlotTagDeviceToBeDiscontinued(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SlotAddDevicesToBeLogged(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Flush(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SlotLoggerLevel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SlotGetLoggerStaleness(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Invoke calls slot on conn using the same raw structpb.Struct
// request/response shape the server methods speak, for callers that
// need to reach another process's slot surface without a generated
// client stub (e.g. the Logger Manager's reconciler probing a Data
// Logger process's staleness).
func Invoke(ctx context.Context, cc *grpc.ClientConn, slot string, req *structpb.Struct) (*structpb.Struct, error) {
	reply := new(structpb.Struct)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+slot, req, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func unaryHandler(fullMethod string, call func(SlotServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SlotServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(SlotServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is registered on a *grpc.Server via
// grpc.Server.RegisterService(&rpc.ServiceDesc, server).
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SlotServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "slotGetPropertyHistory",
			Handler: unaryHandler("/"+ServiceName+"/slotGetPropertyHistory", func(s SlotServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.SlotGetPropertyHistory(ctx, in)
			}),
		},
		{
			MethodName: "slotGetConfigurationFromPast",
			Handler: unaryHandler("/"+ServiceName+"/slotGetConfigurationFromPast", func(s SlotServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.SlotGetConfigurationFromPast(ctx, in)
			}),
		},
		{
			MethodName: "slotGetBadData",
			Handler: unaryHandler("/"+ServiceName+"/slotGetBadData", func(s SlotServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.SlotGetBadData(ctx, in)
			}),
		},
		{
			MethodName: "slotTagDeviceToBeDiscontinued",
			Handler: unaryHandler("/"+ServiceName+"/slotTagDeviceToBeDiscontinued", func(s SlotServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.SlotTagDeviceToBeDiscontinued(ctx, in)
			}),
		},
		{
			MethodName: "slotAddDevicesToBeLogged",
			Handler: unaryHandler("/"+ServiceName+"/slotAddDevicesToBeLogged", func(s SlotServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.SlotAddDevicesToBeLogged(ctx, in)
			}),
		},
		{
			MethodName: "flush",
			Handler: unaryHandler("/"+ServiceName+"/flush", func(s SlotServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.Flush(ctx, in)
			}),
		},
		{
			MethodName: "slotLoggerLevel",
			Handler: unaryHandler("/"+ServiceName+"/slotLoggerLevel", func(s SlotServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.SlotLoggerLevel(ctx, in)
			}),
		},
		{
			MethodName: "slotGetLoggerStaleness",
			Handler: unaryHandler("/"+ServiceName+"/slotGetLoggerStaleness", func(s SlotServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.SlotGetLoggerStaleness(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/rpc/rpc.go",
}
