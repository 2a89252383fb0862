package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	appintegration "github.com/invsync/backend/internal/application/integration"
	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/infrastructure/scheduler"
)

// ConnectChannelRequest registers a marketplace. Settings is the
// {type, credentials, options} document stored on the marketplace.
type ConnectChannelRequest struct {
	Name     string          `json:"name" binding:"required,max=100"`
	Settings json.RawMessage `json:"settings" binding:"required"`
}

// MarketplaceResponse is the API view of a marketplace. Credentials are
// never returned.
type MarketplaceResponse struct {
	ID        uuid.UUID                     `json:"id"`
	Name      string                        `json:"name"`
	Type      integration.MarketplaceType   `json:"type"`
	Status    integration.MarketplaceStatus `json:"status"`
	Options   integration.ChannelOptions    `json:"options"`
	LastSync  *time.Time                    `json:"last_sync,omitempty"`
	CreatedAt time.Time                     `json:"created_at"`
}

// ToMarketplaceResponse converts a marketplace to its API view
func ToMarketplaceResponse(m *integration.Marketplace) MarketplaceResponse {
	return MarketplaceResponse{
		ID:        m.ID,
		Name:      m.Name,
		Type:      m.Type,
		Status:    m.Status,
		Options:   m.Settings.Options,
		LastSync:  m.LastSync,
		CreatedAt: m.CreatedAt,
	}
}

// SyncResultResponse is the API view of a sync run
type SyncResultResponse struct {
	Category     integration.SyncCategory `json:"category"`
	Success      bool                     `json:"success"`
	Message      string                   `json:"message,omitempty"`
	SyncedCount  int                      `json:"synced_count"`
	SkippedCount int                      `json:"skipped_count"`
	Errors       []string                 `json:"errors"`
	StartedAt    time.Time                `json:"started_at"`
	FinishedAt   time.Time                `json:"finished_at"`
	DurationMs   int64                    `json:"duration_ms"`
}

// ToSyncResultResponse converts a sync result to its API view
func ToSyncResultResponse(r *integration.SyncResult) SyncResultResponse {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return SyncResultResponse{
		Category:     r.Category,
		Success:      r.Success,
		Message:      r.Message,
		SyncedCount:  r.SyncedCount,
		SkippedCount: r.SkippedCount,
		Errors:       errs,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		DurationMs:   r.Duration().Milliseconds(),
	}
}

// ChannelSyncResponse is one marketplace's entry in a sync-all response
type ChannelSyncResponse struct {
	MarketplaceID   uuid.UUID          `json:"marketplace_id"`
	MarketplaceName string             `json:"marketplace_name"`
	Result          SyncResultResponse `json:"result"`
}

// ToChannelSyncResponses converts sync-all outcomes to their API view
func ToChannelSyncResponses(outcomes []appintegration.ChannelSyncOutcome) []ChannelSyncResponse {
	out := make([]ChannelSyncResponse, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, ChannelSyncResponse{
			MarketplaceID:   o.MarketplaceID,
			MarketplaceName: o.MarketplaceName,
			Result:          ToSyncResultResponse(o.Result),
		})
	}
	return out
}

// HealthCheckResponse is the API view of a marketplace health check
type HealthCheckResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	LatencyMs int64  `json:"latency_ms"`
}

// ToHealthCheckResponse converts a health result to its API view
func ToHealthCheckResponse(r *integration.HealthResult) HealthCheckResponse {
	return HealthCheckResponse{Success: r.Success, Message: r.Message, LatencyMs: r.Latency.Milliseconds()}
}

// SyncJobResponse is the API view of a scheduled sync job
type SyncJobResponse struct {
	ID              uuid.UUID  `json:"id"`
	MarketplaceID   uuid.UUID  `json:"marketplace_id"`
	MarketplaceName string     `json:"marketplace_name"`
	Status          string     `json:"status"`
	Error           string     `json:"error,omitempty"`
	QueuedAt        time.Time  `json:"queued_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	SyncedCount     int        `json:"synced_count"`
	SkippedCount    int        `json:"skipped_count"`
	ErrorCount      int        `json:"error_count"`
}

// ToSyncJobResponses converts scheduler history to its API view
func ToSyncJobResponses(jobs []*scheduler.SyncJob) []SyncJobResponse {
	out := make([]SyncJobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, SyncJobResponse{
			ID:              j.ID,
			MarketplaceID:   j.MarketplaceID,
			MarketplaceName: j.MarketplaceName,
			Status:          string(j.Status),
			Error:           j.Error,
			QueuedAt:        j.QueuedAt,
			StartedAt:       j.StartedAt,
			CompletedAt:     j.CompletedAt,
			SyncedCount:     j.SyncedCount,
			SkippedCount:    j.SkippedCount,
			ErrorCount:      j.ErrorCount,
		})
	}
	return out
}
