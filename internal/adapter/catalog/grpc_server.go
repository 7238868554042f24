package catalog

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/port"
)

const (
	serviceName      = "restaurant.catalog.v1.Catalog"
	getProductMethod = "/" + serviceName + "/GetProduct"
)

// CatalogServer is the server API of the product catalog.
type CatalogServer interface {
	GetProduct(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

// ServiceDesc describes the catalog service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: getProductHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog.proto",
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getProductHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getProductMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).GetProduct(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Server serves product lookups from any inquiry.
type Server struct {
	inquiry port.ProductInquiry
}

func NewServer(inquiry port.ProductInquiry) *Server {
	return &Server{inquiry: inquiry}
}

func (s *Server) GetProduct(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id, err := domain.ParseProductID(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	product, err := s.inquiry.GetProduct(ctx, id)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	if product == nil {
		return nil, status.Errorf(codes.NotFound, "product %s not found", id)
	}

	return structpb.NewStruct(map[string]any{
		"id":          product.ID.String(),
		"name":        product.Name,
		"price_cents": float64(product.PriceCents),
	})
}
