package delete_record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
)

// Request identifies the record to delete.
type Request struct {
	LocalID int64
}

// Interactor handles the delete record use case.
type Interactor struct {
	repo   contracts.RecordRepository
	logger *slog.Logger
}

// NewInteractor creates a new delete record interactor.
func NewInteractor(repo contracts.RecordRepository, logger *slog.Logger) *Interactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interactor{repo: repo, logger: logger}
}

// Execute deletes the record. The next sync pass may insert it again if the
// upstream still lists it and a slot is free.
func (i *Interactor) Execute(ctx context.Context, req *Request) error {
	rec, err := i.repo.GetByID(ctx, req.LocalID)
	if err != nil {
		return err
	}
	if err := i.repo.DeleteByID(ctx, req.LocalID); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}
	i.logger.Info("record_deleted", "local_id", rec.LocalID(), "external_id", rec.ExternalID(), "title", rec.Title())
	return nil
}
