// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	perrors "parentportal/cli/internal/errors"
)

// Full method names served by the portal's gRPC gateway. Requests and
// responses are google.protobuf.Struct so no generated stubs are needed.
const (
	MethodLogin          = "/parentportal.v1.Auth/Login"
	MethodVerify         = "/parentportal.v1.Auth/Verify"
	MethodLogout         = "/parentportal.v1.Auth/Logout"
	MethodRegister       = "/parentportal.v1.Auth/Register"
	MethodForgotPassword = "/parentportal.v1.Auth/ForgotPassword"
	MethodList           = "/parentportal.v1.Data/List"
	MethodVersion        = "/parentportal.v1.Meta/Version"
)

// GRPC implements API over unary gRPC calls.
type GRPC struct {
	conn grpc.ClientConnInterface
}

var _ API = (*GRPC)(nil)

// NewGRPC wraps an existing connection. Tests pass a bufconn-backed conn.
func NewGRPC(conn grpc.ClientConnInterface) *GRPC {
	return &GRPC{conn: conn}
}

// DialGRPC creates a client connection to addr. TLS is used unless plaintext
// is true; a missing port defaults to 443.
func DialGRPC(addr string, plaintext bool, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	host := addr
	target := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	} else {
		target = net.JoinHostPort(addr, "443")
	}

	creds := credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	if plaintext {
		creds = insecure.NewCredentials()
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)
	return grpc.NewClient(target, dialOpts...)
}

func (g *GRPC) invoke(ctx context.Context, op, method, token string, in map[string]any) (map[string]any, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	out := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, method, req, out); err != nil {
		return nil, grpcError(op, err)
	}
	return out.AsMap(), nil
}

// grpcError maps a gRPC status onto the error taxonomy.
func grpcError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return perrors.Wrap(perrors.NetworkError, op, err)
	}
	msg := fmt.Sprintf("%s: %s", op, st.Message())
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return perrors.New(perrors.AuthRejected, msg)
	case codes.InvalidArgument, codes.AlreadyExists, codes.FailedPrecondition:
		return perrors.Invalid(msg, nil)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return perrors.Wrap(perrors.NetworkError, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (g *GRPC) Login(ctx context.Context, creds Credentials) (*Session, error) {
	out, err := g.invoke(ctx, "login", MethodLogin, "", map[string]any{
		"email":    creds.Email,
		"password": creds.Password,
	})
	if err != nil {
		return nil, err
	}
	token := extractToken(out)
	if token == "" {
		return nil, perrors.New(perrors.AuthRejected, "login: no token in response")
	}
	return &Session{Token: token, User: decodeProfile(out)}, nil
}

func (g *GRPC) Verify(ctx context.Context, token string) (*UserProfile, error) {
	if token == "" {
		return nil, perrors.New(perrors.AuthRejected, "verify: no token")
	}
	out, err := g.invoke(ctx, "verify", MethodVerify, token, nil)
	if err != nil {
		return nil, err
	}
	p := decodeProfile(out)
	return &p, nil
}

func (g *GRPC) Logout(ctx context.Context, token string) error {
	_, err := g.invoke(ctx, "logout", MethodLogout, token, nil)
	if perrors.Is(err, perrors.AuthRejected) {
		return nil
	}
	return err
}

func (g *GRPC) Register(ctx context.Context, reg Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	_, err := g.invoke(ctx, "register", MethodRegister, "", map[string]any{
		"name":     reg.Name,
		"email":    reg.Email,
		"password": reg.Password,
	})
	return err
}

func (g *GRPC) ForgotPassword(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	_, err := g.invoke(ctx, "forgot-password", MethodForgotPassword, "", map[string]any{"email": email})
	if status.Code(errors.Unwrap(err)) == codes.NotFound {
		return nil
	}
	return err
}

// List relies on apiguard.UnaryClientInterceptor to attach the session token.
func (g *GRPC) List(ctx context.Context, resource string) ([]map[string]any, error) {
	if !IsResource(resource) {
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
	out, err := g.invoke(ctx, "list "+resource, MethodList, "", map[string]any{"resource": resource})
	if err != nil {
		return nil, err
	}
	raw, _ := out["items"].([]any)
	items := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if m, ok := it.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items, nil
}

func (g *GRPC) GetVersion(ctx context.Context) (string, error) {
	out, err := g.invoke(ctx, "version", MethodVersion, "", nil)
	if err != nil {
		if perrors.Is(err, perrors.NetworkError) {
			return "", err
		}
		return "unknown", nil
	}
	if v, ok := out["version"].(string); ok && v != "" {
		return v, nil
	}
	return "unknown", nil
}
