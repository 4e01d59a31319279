package catalog

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/count_records"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/get_record"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/usecases/delete_record"
)

// SyncTrigger starts a manual sync pass.
type SyncTrigger interface {
	Trigger(ctx context.Context) (*domain.SyncReport, error)
}

// Handler implements CatalogSyncServer.
// It's a thin coordinator that delegates to use cases and queries.
type Handler struct {
	sync SyncTrigger

	// Commands
	deleteRecord *delete_record.Interactor

	// Queries
	getRecord    *get_record.Query
	countRecords *count_records.Query
}

var _ CatalogSyncServer = (*Handler)(nil)

// NewHandler creates a new gRPC catalog handler.
func NewHandler(
	sync SyncTrigger,
	deleteRecord *delete_record.Interactor,
	getRecord *get_record.Query,
	countRecords *count_records.Query,
) *Handler {
	return &Handler{
		sync:         sync,
		deleteRecord: deleteRecord,
		getRecord:    getRecord,
		countRecords: countRecords,
	}
}

// TriggerSync runs a manual pass and returns its report. A failed pass
// carries the message and current record count as a Struct status detail.
func (h *Handler) TriggerSync(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	report, err := h.sync.Trigger(ctx)
	if err != nil {
		return nil, h.syncFailure(ctx, err)
	}

	out, err := syncResultToProto(report)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode report: %v", err)
	}
	return out, nil
}

func (h *Handler) syncFailure(ctx context.Context, err error) error {
	st := status.Convert(mapDomainErrorToGRPC(err))

	fields := map[string]any{
		"success": false,
		"message": "Error syncing products: " + err.Error(),
	}
	if h.countRecords != nil {
		if n, cerr := h.countRecords.Execute(context.WithoutCancel(ctx)); cerr == nil {
			fields["total"] = n
		}
	}

	detail, derr := structpb.NewStruct(fields)
	if derr != nil {
		return st.Err()
	}
	withDetail, derr := st.WithDetails(detail)
	if derr != nil {
		return st.Err()
	}
	return withDetail.Err()
}

// GetRecord returns one record by local id.
func (h *Handler) GetRecord(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	if err := validateRecordID(req); err != nil {
		return nil, err
	}

	rec, err := h.getRecord.Execute(ctx, &get_record.Request{LocalID: req.GetValue()})
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	out, err := recordToProto(rec)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode record: %v", err)
	}
	return out, nil
}

// DeleteRecord removes one record by local id.
func (h *Handler) DeleteRecord(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := validateRecordID(req); err != nil {
		return nil, err
	}

	if err := h.deleteRecord.Execute(ctx, &delete_record.Request{LocalID: req.GetValue()}); err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}
	return &emptypb.Empty{}, nil
}
