package apiguard

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryClientInterceptor is the gRPC counterpart of Transport.
func (g *Guard) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		kv := []string{"x-request-id", uuid.NewString()}
		if g.lang != "" {
			kv = append(kv, "accept-language", g.lang)
		}

		var attached string
		if len(md.Get("authorization")) == 0 {
			if tok, ok := g.tokens.Token(); ok {
				kv = append(kv, "authorization", "Bearer "+tok)
				attached = tok
			}
		}
		ctx = metadata.AppendToOutgoingContext(ctx, kv...)

		err := invoker(ctx, method, req, reply, cc, opts...)
		if attached != "" {
			switch status.Code(err) {
			case codes.Unauthenticated, codes.PermissionDenied:
				g.reject(attached, "grpc")
			}
		}
		return err
	}
}
