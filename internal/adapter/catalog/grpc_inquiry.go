package catalog

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rl1809/restaurant/internal/core/domain"
)

// GRPCInquiry looks products up in a remote catalog.
type GRPCInquiry struct {
	conn *grpc.ClientConn
}

// DialInquiry connects lazily to the catalog at addr.
func DialInquiry(addr string) (*GRPCInquiry, error) {
	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial catalog %s: %w", addr, err)
	}
	return &GRPCInquiry{conn: conn}, nil
}

func (g *GRPCInquiry) GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	out := new(structpb.Struct)
	err := g.conn.Invoke(ctx, getProductMethod, wrapperspb.String(id.String()), out)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog get product %s: %w", id, err)
	}

	fields := out.GetFields()
	return &domain.Product{
		ID:         id,
		Name:       fields["name"].GetStringValue(),
		PriceCents: int64(fields["price_cents"].GetNumberValue()),
	}, nil
}

func (g *GRPCInquiry) Close() error {
	return g.conn.Close()
}
