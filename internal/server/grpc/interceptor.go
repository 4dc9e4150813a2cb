package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// staffOnly lists methods a client actor may not call.
var staffOnly = map[string]bool{
	"/" + ServiceName + "/Reconcile":            true,
	"/" + ServiceName + "/EnqueuePacket":        true,
	"/" + ServiceName + "/AddChecklistItem":     true,
	"/" + ServiceName + "/ResolveChecklistItem": true,
}

// accessTokenInterceptor authenticates every engine call. Other services
// (health) pass through untouched.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if !strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	actor, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	if staffOnly[info.FullMethod] && !actor.IsStaff() {
		s.logger.Warn(ctx, "staff-only call refused", "method", info.FullMethod, "user_id", actor.UserID)
		return nil, status.Error(codes.PermissionDenied, "staff role required")
	}

	return handler(auth.WithActor(ctx, actor), req)
}
