package grpc

import (
	"context"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/security"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GetActorFromContext returns the caller placed in the context by the auth
// interceptor.
func GetActorFromContext(ctx context.Context) (domain.Actor, error) {
	actor := security.ActorFromContext(ctx)
	if actor == nil {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return actor, nil
}

// idempotencyKey reads the optional "idempotency-key" request header.
func idempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if keys := md.Get("idempotency-key"); len(keys) > 0 {
		return keys[0]
	}
	return ""
}

func actorOrNil(ctx context.Context) domain.Actor {
	return security.ActorFromContext(ctx)
}
