package backend

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	perrors "parentportal/cli/internal/errors"
)

type structHandler func(ctx context.Context, in map[string]any) (map[string]any, error)

func unary(fn structHandler) grpc.MethodHandler {
	return func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
		in := &structpb.Struct{}
		if err := dec(in); err != nil {
			return nil, err
		}
		out, err := fn(ctx, in.AsMap())
		if err != nil {
			return nil, err
		}
		return structpb.NewStruct(out)
	}
}

// startGRPC serves the given methods ("Service/Method" -> handler) over bufconn.
func startGRPC(t *testing.T, methods map[string]structHandler) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()

	services := map[string]*grpc.ServiceDesc{}
	for full, fn := range methods {
		svc, method, _ := strings.Cut(full, "/")
		desc, ok := services[svc]
		if !ok {
			desc = &grpc.ServiceDesc{ServiceName: svc, HandlerType: (*any)(nil)}
			services[svc] = desc
		}
		desc.Methods = append(desc.Methods, grpc.MethodDesc{MethodName: method, Handler: unary(fn)})
	}
	for _, desc := range services {
		srv.RegisterService(desc, struct{}{})
	}
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func bearerFrom(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	if v := md.Get("authorization"); len(v) > 0 {
		return v[0]
	}
	return ""
}

func TestGRPCLoginAndVerify(t *testing.T) {
	conn := startGRPC(t, map[string]structHandler{
		"parentportal.v1.Auth/Login": func(ctx context.Context, in map[string]any) (map[string]any, error) {
			if in["password"] != "pw" {
				return nil, status.Error(codes.Unauthenticated, "bad credentials")
			}
			return map[string]any{"token": "abc", "user": map[string]any{"id": "u1"}}, nil
		},
		"parentportal.v1.Auth/Verify": func(ctx context.Context, in map[string]any) (map[string]any, error) {
			if bearerFrom(ctx) != "Bearer abc" {
				return nil, status.Error(codes.Unauthenticated, "expired")
			}
			return map[string]any{"id": "u1", "email": "p@school.test"}, nil
		},
	})
	g := NewGRPC(conn)

	sess, err := g.Login(context.Background(), Credentials{Email: "p@school.test", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "abc", sess.Token)
	require.Equal(t, "u1", sess.User.ID)

	_, err = g.Login(context.Background(), Credentials{Email: "p@school.test", Password: "no"})
	require.True(t, perrors.Is(err, perrors.AuthRejected))

	p, err := g.Verify(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "p@school.test", p.Email)

	_, err = g.Verify(context.Background(), "stale")
	require.True(t, perrors.Is(err, perrors.AuthRejected))
}

func TestGRPCErrorMapping(t *testing.T) {
	tests := []struct {
		code codes.Code
		kind perrors.Kind
	}{
		{codes.PermissionDenied, perrors.AuthRejected},
		{codes.InvalidArgument, perrors.ValidationError},
		{codes.Unavailable, perrors.NetworkError},
		{codes.Internal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := grpcError("verify", status.Error(tt.code, "x"))
			require.Equal(t, tt.kind, perrors.KindOf(err))
		})
	}
}

func TestGRPCList(t *testing.T) {
	conn := startGRPC(t, map[string]structHandler{
		"parentportal.v1.Data/List": func(ctx context.Context, in map[string]any) (map[string]any, error) {
			return map[string]any{"items": []any{map[string]any{"id": "sr-1", "resource": in["resource"]}}}, nil
		},
	})

	items, err := NewGRPC(conn).List(context.Background(), "service-requests")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "service-requests", items[0]["resource"])
}

func TestGRPCForgotPasswordNotFoundIsSuccess(t *testing.T) {
	conn := startGRPC(t, map[string]structHandler{
		"parentportal.v1.Auth/ForgotPassword": func(ctx context.Context, in map[string]any) (map[string]any, error) {
			return nil, status.Error(codes.NotFound, "no such user")
		},
	})
	require.NoError(t, NewGRPC(conn).ForgotPassword(context.Background(), "who@school.test"))
}
