package catalog

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
)

// reportToMap converts a sync report to structpb-compatible values.
func reportToMap(r *domain.SyncReport) map[string]any {
	return map[string]any{
		"run_id":              r.RunID,
		"trigger":             string(r.Trigger),
		"capacity":            r.Capacity,
		"received":            r.Received,
		"examined":            r.Examined,
		"inserted":            r.Inserted,
		"updated":             r.Updated,
		"skipped_invalid":     r.SkippedInvalid,
		"skipped_at_capacity": r.SkippedAtCapacity,
		"price_warnings":      r.PriceWarnings,
		"pruned":              r.Pruned,
		"final_count":         r.FinalCount,
		"started_at":          r.StartedAt.Format(time.RFC3339Nano),
		"finished_at":         r.FinishedAt.Format(time.RFC3339Nano),
	}
}

func syncResultToProto(r *domain.SyncReport) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"success": true,
		"message": r.Message(),
		"total":   r.FinalCount,
		"report":  reportToMap(r),
	})
}

func recordToProto(rec *domain.CatalogRecord) (*structpb.Struct, error) {
	variants := make([]any, 0, rec.VariantCount())
	for _, v := range rec.Variants() {
		m := map[string]any{
			"title":     v.Title,
			"available": v.Available,
			"price":     v.Price.DecimalString(),
		}
		if v.ExternalID != nil {
			m["id"] = *v.ExternalID
		}
		if v.SKU != "" {
			m["sku"] = v.SKU
		}
		variants = append(variants, m)
	}
	return structpb.NewStruct(map[string]any{
		"id":          rec.LocalID(),
		"external_id": rec.ExternalID(),
		"title":       rec.Title(),
		"handle":      rec.Handle(),
		"category":    rec.Category(),
		"price":       rec.Price().DecimalString(),
		"variants":    variants,
		"created_at":  rec.CreatedAt().Format(time.RFC3339),
		"updated_at":  rec.UpdatedAt().Format(time.RFC3339),
	})
}
