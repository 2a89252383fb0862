package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appintegration "github.com/invsync/backend/internal/application/integration"
	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/infrastructure/scheduler"
	"github.com/invsync/backend/internal/interfaces/http/dto"
)

const defaultJobHistoryLimit = 50

// ChannelService is the part of the sync service the channel endpoints use
type ChannelService interface {
	ConnectChannel(ctx context.Context, cmd appintegration.ConnectChannelCommand) (*integration.Marketplace, error)
	DeleteChannel(ctx context.Context, id uuid.UUID) error
	SyncAllActive(ctx context.Context) ([]appintegration.ChannelSyncOutcome, error)
	SyncCategory(ctx context.Context, id uuid.UUID, category integration.SyncCategory) (*integration.SyncResult, error)
	HealthCheck(ctx context.Context, id uuid.UUID) (*integration.HealthResult, error)
}

// JobHistory exposes recent scheduled sync jobs
type JobHistory interface {
	GetJobHistory(limit int) []*scheduler.SyncJob
	GetJobHistoryByMarketplace(marketplaceID uuid.UUID, limit int) []*scheduler.SyncJob
}

// ChannelHandler handles marketplace channel endpoints
type ChannelHandler struct {
	BaseHandler
	service ChannelService
	history JobHistory
}

// NewChannelHandler creates a ChannelHandler. history may be nil when the
// scheduler is disabled.
func NewChannelHandler(service ChannelService, history JobHistory) *ChannelHandler {
	return &ChannelHandler{service: service, history: history}
}

// Connect registers a marketplace and initializes its channel.
// POST /api/v1/channels
func (h *ChannelHandler) Connect(c *gin.Context) {
	var req dto.ConnectChannelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	var settings integration.Settings
	if err := json.Unmarshal(req.Settings, &settings); err != nil {
		h.HandleError(c, err)
		return
	}

	m, err := h.service.ConnectChannel(c.Request.Context(), appintegration.ConnectChannelCommand{
		Name:     req.Name,
		Settings: settings,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToMarketplaceResponse(m))
}

// Delete removes a marketplace and everything synced from it.
// DELETE /api/v1/channels/:id
func (h *ChannelHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteChannel(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SyncAll runs a full sync of every active marketplace.
// POST /api/v1/channels/sync
func (h *ChannelHandler) SyncAll(c *gin.Context) {
	outcomes, err := h.service.SyncAllActive(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToChannelSyncResponses(outcomes))
}

// Sync runs a full sync of one marketplace.
// POST /api/v1/channels/:id/sync
func (h *ChannelHandler) Sync(c *gin.Context) {
	h.runSync(c, integration.SyncCategoryAll)
}

// SyncCategory runs one category sync of a marketplace.
// POST /api/v1/channels/:id/sync/:category
func (h *ChannelHandler) SyncCategory(c *gin.Context) {
	h.runSync(c, integration.SyncCategory(c.Param("category")))
}

func (h *ChannelHandler) runSync(c *gin.Context, category integration.SyncCategory) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if !category.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidCategory, "Unknown sync category: "+string(category))
		return
	}

	result, err := h.service.SyncCategory(c.Request.Context(), id, category)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if appintegration.IsSyncInProgress(result) {
		h.ErrorWithCode(c, dto.ErrCodeSyncInProgress, result.Message)
		return
	}
	h.Success(c, dto.ToSyncResultResponse(result))
}

// Health checks a marketplace without changing its channel state.
// GET /api/v1/channels/:id/health
func (h *ChannelHandler) Health(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.service.HealthCheck(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToHealthCheckResponse(result))
}

// Jobs lists recent scheduled sync jobs, newest first.
// GET /api/v1/sync/jobs?limit=N
func (h *ChannelHandler) Jobs(c *gin.Context) {
	limit, ok := h.limitQuery(c)
	if !ok {
		return
	}
	var jobs []*scheduler.SyncJob
	if h.history != nil {
		jobs = h.history.GetJobHistory(limit)
	}
	h.Success(c, dto.ToSyncJobResponses(jobs))
}

// ChannelJobs lists recent scheduled sync jobs of one marketplace.
// GET /api/v1/channels/:id/jobs?limit=N
func (h *ChannelHandler) ChannelJobs(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	limit, ok := h.limitQuery(c)
	if !ok {
		return
	}
	var jobs []*scheduler.SyncJob
	if h.history != nil {
		jobs = h.history.GetJobHistoryByMarketplace(id, limit)
	}
	h.Success(c, dto.ToSyncJobResponses(jobs))
}

func (h *ChannelHandler) limitQuery(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultJobHistoryLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}
