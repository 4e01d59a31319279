package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/count_records"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/get_record"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/list_records"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/search_records"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/usecases/delete_record"
	"github.com/light-bringer/catalog-mirror/internal/scheduler"
)

// SyncRunner is the part of the scheduler the HTTP layer drives.
type SyncRunner interface {
	Trigger(ctx context.Context) (*domain.SyncReport, error)
	History() []scheduler.RunRecord
	Running() bool
}

// Handler serves the catalog HTTP API. It delegates to use cases and queries.
type Handler struct {
	sync    SyncRunner
	limiter *rate.Limiter
	logger  *slog.Logger

	getRecord     *get_record.Query
	listRecords   *list_records.Query
	searchRecords *search_records.Query
	deleteRecord  *delete_record.Interactor
	countRecords  *count_records.Query
}

// NewHandler creates the HTTP handler. manualRPS limits POST /api/v1/sync;
// zero or less disables the limit.
func NewHandler(
	sync SyncRunner,
	manualRPS float64,
	getRecord *get_record.Query,
	listRecords *list_records.Query,
	searchRecords *search_records.Query,
	deleteRecord *delete_record.Interactor,
	countRecords *count_records.Query,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if manualRPS > 0 {
		limit = rate.Limit(manualRPS)
	}
	return &Handler{
		sync:          sync,
		limiter:       rate.NewLimiter(limit, 1),
		logger:        logger,
		getRecord:     getRecord,
		listRecords:   listRecords,
		searchRecords: searchRecords,
		deleteRecord:  deleteRecord,
		countRecords:  countRecords,
	}
}

// TriggerSync handles POST /api/v1/sync.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		WriteJSONError(w, http.StatusTooManyRequests, "rate_limited", "manual sync is rate limited")
		return
	}

	h.logger.Info("manual_sync_requested", "request_id", RequestIDFromContext(r.Context()))
	report, err := h.sync.Trigger(r.Context())
	if err != nil {
		writeJSON(w, statusFor(err), SyncResult{
			Success: false,
			Message: "Error syncing products: " + err.Error(),
			Total:   h.currentTotal(r.Context()),
			Report:  report,
		})
		return
	}

	total := report.FinalCount
	writeJSON(w, http.StatusOK, SyncResult{
		Success: true,
		Message: report.Message(),
		Total:   &total,
		Report:  report,
	})
}

// currentTotal reads the store size after a failed pass. It returns nil when
// the store cannot be counted.
func (h *Handler) currentTotal(ctx context.Context) *int64 {
	if h.countRecords == nil {
		return nil
	}
	n, err := h.countRecords.Execute(context.WithoutCancel(ctx))
	if err != nil {
		h.logger.Warn("record_count_failed", "error", err)
		return nil
	}
	return &n
}

// ListRuns handles GET /api/v1/sync/runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, _ *http.Request) {
	history := h.sync.History()
	runs := make([]scheduler.RunRecord, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		runs = append(runs, history[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":    runs,
		"running": h.sync.Running(),
	})
}

// ListRecords handles GET /api/v1/products.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &list_records.Request{
		Page: intParam(q.Get("page")),
		Size: intParam(q.Get("size")),
	}

	res, err := h.listRecords.Execute(r.Context(), req)
	if err != nil {
		h.logger.Error("list_records_failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordPage(res))
}

// SearchRecords handles GET /api/v1/products/search.
func (h *Handler) SearchRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	recs, err := h.searchRecords.Execute(r.Context(), &search_records.Request{Query: query})
	if err != nil {
		h.logger.Error("search_records_failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResult{
		Query:      query,
		Records:    toRecords(recs),
		MatchCount: len(recs),
	})
}

// GetRecord handles GET /api/v1/products/{id}.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := h.getRecord.Execute(r.Context(), &get_record.Request{LocalID: id})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecord(rec))
}

// DeleteRecord handles DELETE /api/v1/products/{id}.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.deleteRecord.Execute(r.Context(), &delete_record.Request{LocalID: id}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"sync_running": h.sync.Running(),
	})
}

// intParam parses an optional integer query parameter; junk reads as zero,
// which the queries treat as "use the default".
func intParam(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteJSONError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
