package rpc

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

const tokenMetadataKey = "x-token"

type (
	Params struct {
		fx.In

		Config   *config.Config
		General  *service.General
		Catalog  *service.Catalog
		Shopping *service.ShoppingList
		Logger   *zap.SugaredLogger
	}

	FoodgramServerImpl struct {
		general  *service.General
		catalog  *service.Catalog
		shopping *service.ShoppingList
		logger   *zap.SugaredLogger

		grpc *grpc.Server
	}

	identityCtxKey struct{}
)

func NewGRPCServer(lc fx.Lifecycle, p Params) *FoodgramServerImpl {
	instance := newGRPCServer(p)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", p.Config.Host+":"+p.Config.GRPCPort)
			if err != nil {
				return errors.Wrap(err, "failed to listen")
			}
			go func() {
				if err := instance.Serve(lis); err != nil {
					p.Logger.Errorw("grpc server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Stopping GRPC server.")
			instance.grpc.GracefulStop()
			return nil
		},
	})

	return instance
}

func newGRPCServer(p Params) *FoodgramServerImpl {
	instance := &FoodgramServerImpl{
		general:  p.General,
		catalog:  p.Catalog,
		shopping: p.Shopping,
		logger:   p.Logger,
	}
	instance.grpc = grpc.NewServer(grpc.UnaryInterceptor(instance.unaryInterceptor))
	RegisterFoodgramServer(instance.grpc, instance)
	return instance
}

func (s *FoodgramServerImpl) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

func (s *FoodgramServerImpl) Stop() {
	s.grpc.Stop()
}

// unaryInterceptor resolves the caller from x-token metadata and maps service errors to status codes.
func (s *FoodgramServerImpl) unaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()

	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(tokenMetadataKey); len(values) > 0 {
			token = values[0]
		}
	}

	identity, err := s.general.Identify(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		s.logger.Errorw("identify caller", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	resp, err := handler(context.WithValue(ctx, identityCtxKey{}, identity), req)
	if err != nil {
		err = s.toStatus(info.FullMethod, err)
	}

	s.logger.Infow("rpc",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"latency", time.Since(start),
	)
	return resp, err
}

func (s *FoodgramServerImpl) toStatus(method string, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, service.ErrDuplicate):
		code = codes.AlreadyExists
	case errors.Is(err, service.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, service.ErrEmptyCart):
		code = codes.FailedPrecondition
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrSelfReference):
		code = codes.InvalidArgument
	case errors.Is(err, service.ErrPermission):
		code = codes.PermissionDenied
	case errors.Is(err, service.ErrAuthRequired):
		code = codes.Unauthenticated
	default:
		s.logger.Errorw("rpc failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func identityFromContext(ctx context.Context) service.Identity {
	identity, ok := ctx.Value(identityCtxKey{}).(service.Identity)
	if !ok {
		return service.Anonymous
	}
	return identity
}

func (s *FoodgramServerImpl) ListTags(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	tags, err := s.catalog.ListTags(ctx, "")
	if err != nil {
		return nil, err
	}
	items := make([]interface{}, 0, len(tags))
	for _, t := range tags {
		items = append(items, map[string]interface{}{
			"id":   t.ID,
			"name": t.Name,
			"slug": t.Slug,
		})
	}
	return newList(items)
}

func (s *FoodgramServerImpl) ListIngredients(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	ingredients, err := s.catalog.ListIngredients(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}
	items := make([]interface{}, 0, len(ingredients))
	for _, i := range ingredients {
		items = append(items, map[string]interface{}{
			"id":               i.ID,
			"name":             i.Name,
			"measurement_unit": i.MeasurementUnit,
		})
	}
	return newList(items)
}

func (s *FoodgramServerImpl) DownloadShoppingList(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	userID, err := identityFromContext(ctx).RequireAuthenticated()
	if err != nil {
		return nil, err
	}
	shoppingItems, err := s.shopping.Compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]interface{}, 0, len(shoppingItems))
	for _, item := range shoppingItems {
		items = append(items, map[string]interface{}{
			"id":               item.IngredientID,
			"name":             item.Name,
			"measurement_unit": item.Unit,
			"amount":           item.Amount,
		})
	}
	return newList(items)
}

func newList(items []interface{}) (*structpb.ListValue, error) {
	list, err := structpb.NewList(items)
	if err != nil {
		return nil, errors.Wrap(err, "encode list")
	}
	return list, nil
}
