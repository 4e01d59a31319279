package domain

import (
	"fmt"
	"strings"
	"time"
)

// Trigger identifies what started a sync pass.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
	TriggerCLI       Trigger = "cli"
)

// SyncReport summarises one reconciliation pass. A fresh value is built for
// every pass.
type SyncReport struct {
	RunID             string    `json:"run_id"`
	Trigger           Trigger   `json:"trigger"`
	Capacity          int       `json:"capacity"`
	Received          int       `json:"received"`
	Examined          int       `json:"examined"`
	Inserted          int       `json:"inserted"`
	Updated           int       `json:"updated"`
	SkippedInvalid    int       `json:"skipped_invalid"`
	SkippedAtCapacity int       `json:"skipped_at_capacity"`
	PriceWarnings     int       `json:"price_warnings"`
	Pruned            int       `json:"pruned"`
	FinalCount        int64     `json:"final_count"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Unexamined is the number of feed items beyond the examination cap.
func (r *SyncReport) Unexamined() int {
	if r.Received <= r.Examined {
		return 0
	}
	return r.Received - r.Examined
}

// Duration is the wall time of the pass.
func (r *SyncReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Message is the human-facing result line returned by the manual trigger.
func (r *SyncReport) Message() string {
	return fmt.Sprintf("Products synced successfully! Total products: %d", r.FinalCount)
}

// Summary renders the report as aligned text.
func (r *SyncReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s)\n", r.RunID, r.Trigger)
	rows := []struct {
		label string
		value any
	}{
		{"capacity", r.Capacity},
		{"received", r.Received},
		{"examined", r.Examined},
		{"inserted", r.Inserted},
		{"updated", r.Updated},
		{"skipped invalid", r.SkippedInvalid},
		{"skipped at capacity", r.SkippedAtCapacity},
		{"price warnings", r.PriceWarnings},
		{"pruned", r.Pruned},
		{"final count", r.FinalCount},
		{"duration", r.Duration()},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "  %-20s %v\n", row.label, row.value)
	}
	return b.String()
}
