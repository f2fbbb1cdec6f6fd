package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName = "foodgram.Foodgram"

	methodListTags             = "/" + serviceName + "/ListTags"
	methodListIngredients      = "/" + serviceName + "/ListIngredients"
	methodDownloadShoppingList = "/" + serviceName + "/DownloadShoppingList"
)

// FoodgramServer is the read-only catalog and shopping list API.
// Results are lists of JSON-like objects shaped like the HTTP responses.
type FoodgramServer interface {
	ListTags(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ListIngredients(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	DownloadShoppingList(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

func RegisterFoodgramServer(s grpc.ServiceRegistrar, srv FoodgramServer) {
	s.RegisterService(&foodgramServiceDesc, srv)
}

var foodgramServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FoodgramServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListTags",
			Handler:    listTagsHandler,
		},
		{
			MethodName: "ListIngredients",
			Handler:    listIngredientsHandler,
		},
		{
			MethodName: "DownloadShoppingList",
			Handler:    downloadShoppingListHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "foodgram.proto",
}

func listTagsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FoodgramServer).ListTags(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: methodListTags,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FoodgramServer).ListTags(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listIngredientsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FoodgramServer).ListIngredients(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: methodListIngredients,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FoodgramServer).ListIngredients(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func downloadShoppingListHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FoodgramServer).DownloadShoppingList(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: methodDownloadShoppingList,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FoodgramServer).DownloadShoppingList(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type FoodgramClient interface {
	ListTags(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	ListIngredients(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
	DownloadShoppingList(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

type foodgramClient struct {
	cc grpc.ClientConnInterface
}

func NewFoodgramClient(cc grpc.ClientConnInterface) FoodgramClient {
	return &foodgramClient{cc}
}

func (c *foodgramClient) ListTags(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodListTags, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *foodgramClient) ListIngredients(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodListIngredients, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *foodgramClient) DownloadShoppingList(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodDownloadShoppingList, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
