package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func withToken(tok string) context.Context {
	md := metadata.New(map[string]string{common.AccessTokenHeaderName: tok})
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestInterceptor_HealthPassesWithoutToken(t *testing.T) {
	s := newTestServer(&fakeEngine{})

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	handlerCalled := false
	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_MissingToken(t *testing.T) {
	s := newTestServer(&fakeEngine{})

	info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/Evaluate"}
	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
	if status.Convert(err).Message() != "missing token" {
		t.Fatalf("expected 'missing token', got %q", status.Convert(err).Message())
	}
}

func TestInterceptor_InvalidToken(t *testing.T) {
	s := newTestServer(&fakeEngine{})

	info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/Evaluate"}
	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called with an invalid token")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(withToken("not-a-valid-jwt"), nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestInterceptor_ExpiredToken(t *testing.T) {
	s := newTestServer(&fakeEngine{})

	tok, err := auth.GenerateToken("staff-1", common.RoleStaff, []byte(testSecret), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/Evaluate"}
	h := func(ctx context.Context, req any) (any, error) { return nil, nil }

	_, err = s.accessTokenInterceptor(withToken(tok), nil, info, h)
	if status.Convert(err).Message() != "token expired" {
		t.Fatalf("expected 'token expired', got %v", err)
	}
}

func TestInterceptor_PutsActorInContext(t *testing.T) {
	s := newTestServer(&fakeEngine{})

	info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/Evaluate"}
	var got auth.Actor
	h := func(ctx context.Context, req any) (any, error) {
		a, ok := auth.ActorFromContext(ctx)
		if !ok {
			t.Fatal("actor missing from context")
		}
		got = a
		return nil, nil
	}

	if _, err := s.accessTokenInterceptor(withToken(token(t, "client-1", common.RoleClient)), nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "client-1" || got.Role != common.RoleClient {
		t.Fatalf("unexpected actor: %+v", got)
	}
}

func TestInterceptor_StaffOnlyMethods(t *testing.T) {
	s := newTestServer(&fakeEngine{})
	h := func(ctx context.Context, req any) (any, error) { return "ok", nil }

	methods := []string{"Reconcile", "EnqueuePacket", "AddChecklistItem", "ResolveChecklistItem"}
	for _, m := range methods {
		t.Run(m, func(t *testing.T) {
			info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/" + m}

			_, err := s.accessTokenInterceptor(withToken(token(t, "client-1", common.RoleClient)), nil, info, h)
			if status.Code(err) != codes.PermissionDenied {
				t.Fatalf("client: expected PermissionDenied, got %v", status.Code(err))
			}

			for _, role := range []string{common.RoleStaff, common.RoleAdmin} {
				if _, err := s.accessTokenInterceptor(withToken(token(t, "u", role)), nil, info, h); err != nil {
					t.Fatalf("%s: unexpected error: %v", role, err)
				}
			}
		})
	}
}
