package integration

import (
	"errors"
	"fmt"
	"time"
)

// SyncCategory identifies what a sync run covers
type SyncCategory string

const (
	SyncCategoryAll       SyncCategory = "all"
	SyncCategoryProducts  SyncCategory = "products"
	SyncCategoryOrders    SyncCategory = "orders"
	SyncCategoryInventory SyncCategory = "inventory"
)

// IsValid checks if the category is known
func (c SyncCategory) IsValid() bool {
	switch c {
	case SyncCategoryAll, SyncCategoryProducts, SyncCategoryOrders, SyncCategoryInventory:
		return true
	}
	return false
}

// SyncResult is the outcome of one sync run. It is not persisted.
type SyncResult struct {
	Category     SyncCategory `json:"category"`
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	SyncedCount  int          `json:"synced_count"`
	SkippedCount int          `json:"skipped_count"`
	Errors       []string     `json:"errors"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
}

// NewSyncResult starts a successful, empty result
func NewSyncResult(category SyncCategory) *SyncResult {
	return &SyncResult{
		Category:  category,
		Success:   true,
		Errors:    make([]string, 0),
		StartedAt: time.Now().UTC(),
	}
}

// FailedSyncResult builds a finished, unsuccessful result from err
func FailedSyncResult(category SyncCategory, err error) *SyncResult {
	r := NewSyncResult(category)
	r.Fail(err)
	r.Finish()
	return r
}

// AddItemError records a per-record failure without failing the run
func (r *SyncResult) AddItemError(kind, ref string, err error) {
	var validation *ItemValidationError
	if errors.As(err, &validation) {
		r.Errors = append(r.Errors, validation.Error())
		return
	}
	r.Errors = append(r.Errors, fmt.Sprintf("%s %s: %v", kind, ref, err))
}

// Fail marks the run unsuccessful
func (r *SyncResult) Fail(err error) {
	r.Success = false
	if err != nil {
		r.Message = err.Error()
	}
}

// HasItemErrors reports whether any record failed
func (r *SyncResult) HasItemErrors() bool {
	return len(r.Errors) > 0
}

// Merge folds a category result into an aggregate run
func (r *SyncResult) Merge(sub *SyncResult) {
	if sub == nil {
		return
	}
	r.SyncedCount += sub.SyncedCount
	r.SkippedCount += sub.SkippedCount
	r.Errors = append(r.Errors, sub.Errors...)
	if !sub.Success {
		r.Success = false
		if sub.Message != "" {
			if r.Message != "" {
				r.Message += "; "
			}
			r.Message += fmt.Sprintf("%s: %s", sub.Category, sub.Message)
		}
	}
}

// Finish stamps the end time and fills in a summary message when none was set
func (r *SyncResult) Finish() {
	r.FinishedAt = time.Now().UTC()
	if r.Message == "" {
		r.Message = fmt.Sprintf("%s sync completed: %d synced, %d skipped, %d errors",
			r.Category, r.SyncedCount, r.SkippedCount, len(r.Errors))
	}
}

// Duration returns how long the run took
func (r *SyncResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ChannelState is the lifecycle state of a channel instance
type ChannelState string

const (
	ChannelStateUninitialized ChannelState = "UNINITIALIZED"
	ChannelStateInitializing  ChannelState = "INITIALIZING"
	ChannelStateReady         ChannelState = "READY"
	ChannelStateError         ChannelState = "ERROR"
)

// HealthResult is the outcome of a marketplace health check
type HealthResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Latency time.Duration `json:"latency"`
}
