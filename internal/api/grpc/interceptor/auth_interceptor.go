package interceptor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"skillbridge-backend/internal/config"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/security"
)

type AuthInterceptor struct {
	tokenManager security.TokenManager
}

func NewAuthInterceptor(tm security.TokenManager) *AuthInterceptor {
	return &AuthInterceptor{tokenManager: tm}
}

// Unary returns a server interceptor that resolves the bearer token into an
// actor according to the method's security level.
func (i *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		level := config.GetSecurityLevel(info.FullMethod)

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			return handler(ctx, req)
		}

		token, err := i.extractToken(ctx)
		if err != nil {
			if level == config.SecurityOptional {
				return handler(ctx, req)
			}
			return nil, err
		}

		claims, err := i.tokenManager.ValidateToken(token)
		if err != nil {
			logger.Debug("Rejected token", "method", info.FullMethod, "error", err)
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}
		actor, err := claims.Actor()
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}

		return handler(security.WithActor(ctx, actor), req)
	}
}

func (i *AuthInterceptor) extractToken(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "metadata is not provided")
	}

	authHeader := md["authorization"]
	if len(authHeader) == 0 || authHeader[0] == "" {
		return "", status.Error(codes.Unauthenticated, "authorization token is not provided")
	}

	return security.BearerToken(authHeader[0]), nil
}
