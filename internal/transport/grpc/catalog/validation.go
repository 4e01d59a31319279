package catalog

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// validateRecordID validates a record id request.
func validateRecordID(req *wrapperspb.Int64Value) error {
	if req.GetValue() <= 0 {
		return status.Error(codes.InvalidArgument, "record id must be positive")
	}
	return nil
}
