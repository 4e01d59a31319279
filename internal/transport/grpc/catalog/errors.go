package catalog

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/feed"
	"github.com/light-bringer/catalog-mirror/internal/scheduler"
)

// mapDomainErrorToGRPC converts domain errors to gRPC status codes.
func mapDomainErrorToGRPC(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, scheduler.ErrAlreadyRunning):
		return status.Error(codes.Aborted, "sync already running")

	case errors.Is(err, feed.ErrTransport), errors.Is(err, feed.ErrMalformedFeed):
		return status.Errorf(codes.Unavailable, "upstream feed: %v", err)

	case errors.Is(err, domain.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, "catalog store unavailable")

	case errors.Is(err, domain.ErrInvalidCapacity):
		return status.Error(codes.InvalidArgument, "capacity must not be negative")

	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
