package grpc

import (
	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/logger"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var kindCodes = map[domain.ErrorKind]codes.Code{
	domain.KindValidation:        codes.InvalidArgument,
	domain.KindNotAuthorized:     codes.PermissionDenied,
	domain.KindNotFound:          codes.NotFound,
	domain.KindInvalidState:      codes.FailedPrecondition,
	domain.KindAlreadyApplied:    codes.AlreadyExists,
	domain.KindOpportunityClosed: codes.FailedPrecondition,
	domain.KindCapacityExceeded:  codes.ResourceExhausted,
	domain.KindConflictRetry:     codes.Aborted,
	domain.KindInternal:          codes.Internal,
}

// toStatus converts a service error into a gRPC status carrying the public
// message. Errors that already are statuses pass through.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		logger.Error("Internal error serving gRPC request", "error", err)
	}
	return status.Error(kindCodes[kind], domain.PublicMessage(err))
}
