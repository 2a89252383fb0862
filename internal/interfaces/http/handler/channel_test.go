package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appintegration "github.com/invsync/backend/internal/application/integration"
	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/domain/shared"
	"github.com/invsync/backend/internal/infrastructure/scheduler"
	"github.com/invsync/backend/internal/interfaces/http/dto"
)

func newChannelRouter(h *ChannelHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/v1/channels", h.Connect)
	r.DELETE("/api/v1/channels/:id", h.Delete)
	r.POST("/api/v1/channels/sync", h.SyncAll)
	r.POST("/api/v1/channels/:id/sync", h.Sync)
	r.POST("/api/v1/channels/:id/sync/:category", h.SyncCategory)
	r.GET("/api/v1/channels/:id/health", h.Health)
	r.GET("/api/v1/channels/:id/jobs", h.ChannelJobs)
	r.GET("/api/v1/sync/jobs", h.Jobs)
	return r
}

func taobaoSettingsJSON() map[string]any {
	return map[string]any{
		"type": "TAOBAO",
		"credentials": map[string]any{
			"app_key":    "key",
			"app_secret": "secret",
			"base_url":   "https://api.taobao.example",
		},
		"options": map[string]any{"page_size": 50},
	}
}

func newTaobaoMarketplace(t *testing.T) *integration.Marketplace {
	t.Helper()
	settings, err := integration.NewTaobaoSettings(integration.TaobaoCredentials{
		AppKey:    "key",
		AppSecret: "secret",
		BaseURL:   "https://api.taobao.example",
	}, integration.ChannelOptions{PageSize: 50})
	require.NoError(t, err)
	m, err := integration.NewMarketplace("Taobao Store", settings)
	require.NoError(t, err)
	return m
}

func TestChannelHandler_Connect(t *testing.T) {
	t.Run("creates marketplace", func(t *testing.T) {
		svc := new(mockChannelService)
		m := newTaobaoMarketplace(t)
		svc.On("ConnectChannel", mock.Anything, mock.MatchedBy(func(cmd appintegration.ConnectChannelCommand) bool {
			return cmd.Name == "Taobao Store" &&
				cmd.Settings.Type == integration.MarketplaceTaobao &&
				cmd.Settings.Taobao != nil &&
				cmd.Settings.Taobao.AppKey == "key" &&
				cmd.Settings.Options.PageSize == 50
		})).Return(m, nil)

		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels", map[string]any{
			"name":     "Taobao Store",
			"settings": taobaoSettingsJSON(),
		})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Success)
		var body dto.MarketplaceResponse
		require.NoError(t, json.Unmarshal(env.Data, &body))
		assert.Equal(t, m.ID, body.ID)
		assert.Equal(t, integration.MarketplaceTaobao, body.Type)
		assert.NotContains(t, w.Body.String(), "secret")
		svc.AssertExpectations(t)
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		svc := new(mockChannelService)
		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels", map[string]any{
			"settings": taobaoSettingsJSON(),
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "name", env.Error.Details[0].Field)
		svc.AssertNotCalled(t, "ConnectChannel", mock.Anything, mock.Anything)
	})

	t.Run("malformed json", func(t *testing.T) {
		svc := new(mockChannelService)
		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels", `{"name":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeInvalidJSON, env.Error.Code)
	})

	t.Run("unsupported marketplace type", func(t *testing.T) {
		svc := new(mockChannelService)
		settings := taobaoSettingsJSON()
		settings["type"] = "AMAZON"
		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels", map[string]any{
			"name":     "Store",
			"settings": settings,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeInvalidInput, env.Error.Code)
		svc.AssertNotCalled(t, "ConnectChannel", mock.Anything, mock.Anything)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		svc := new(mockChannelService)
		settings := taobaoSettingsJSON()
		settings["credentials"] = map[string]any{"app_key": "key"}
		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels", map[string]any{
			"name":     "Store",
			"settings": settings,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeInvalidInput, env.Error.Code)
	})
}

func TestChannelHandler_Delete(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "deleted", wantStatus: http.StatusNoContent},
		{name: "not found", err: shared.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: dto.ErrCodeNotFound},
		{name: "sync running", err: integration.ErrSyncInProgress, wantStatus: http.StatusConflict, wantCode: dto.ErrCodeSyncInProgress},
		{name: "storage failure", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantCode: dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockChannelService)
			svc.On("DeleteChannel", mock.Anything, id).Return(tt.err)

			w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodDelete, "/api/v1/channels/"+id.String(), nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantCode, env.Error.Code)
				assert.NotContains(t, env.Error.Message, "connection reset")
			}
		})
	}

	t.Run("invalid id", func(t *testing.T) {
		svc := new(mockChannelService)
		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodDelete, "/api/v1/channels/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeInvalidInput, env.Error.Code)
		svc.AssertNotCalled(t, "DeleteChannel", mock.Anything, mock.Anything)
	})
}

func TestChannelHandler_Sync(t *testing.T) {
	id := uuid.New()

	t.Run("full sync returns result", func(t *testing.T) {
		svc := new(mockChannelService)
		result := integration.NewSyncResult(integration.SyncCategoryAll)
		result.SyncedCount = 7
		result.Finish()
		svc.On("SyncCategory", mock.Anything, id, integration.SyncCategoryAll).Return(result, nil)

		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels/"+id.String()+"/sync", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var body dto.SyncResultResponse
		require.NoError(t, json.Unmarshal(env.Data, &body))
		assert.True(t, body.Success)
		assert.Equal(t, 7, body.SyncedCount)
		assert.Equal(t, integration.SyncCategoryAll, body.Category)
	})

	t.Run("category sync", func(t *testing.T) {
		svc := new(mockChannelService)
		result := integration.NewSyncResult(integration.SyncCategoryOrders)
		result.Finish()
		svc.On("SyncCategory", mock.Anything, id, integration.SyncCategoryOrders).Return(result, nil)

		w, _ := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels/"+id.String()+"/sync/orders", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unknown category", func(t *testing.T) {
		svc := new(mockChannelService)
		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels/"+id.String()+"/sync/customers", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeInvalidCategory, env.Error.Code)
		svc.AssertNotCalled(t, "SyncCategory", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lock held", func(t *testing.T) {
		svc := new(mockChannelService)
		result := integration.NewSyncResult(integration.SyncCategoryAll)
		result.Success = false
		result.Message = appintegration.SyncInProgressMessage
		result.Finish()
		svc.On("SyncCategory", mock.Anything, id, integration.SyncCategoryAll).Return(result, nil)

		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels/"+id.String()+"/sync", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeSyncInProgress, env.Error.Code)
	})

	t.Run("failed run is still reported", func(t *testing.T) {
		svc := new(mockChannelService)
		result := integration.FailedSyncResult(integration.SyncCategoryProducts, errors.New("HTTP 500"))
		svc.On("SyncCategory", mock.Anything, id, integration.SyncCategoryProducts).Return(result, nil)

		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels/"+id.String()+"/sync/products", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var body dto.SyncResultResponse
		require.NoError(t, json.Unmarshal(env.Data, &body))
		assert.False(t, body.Success)
		assert.Equal(t, "HTTP 500", body.Message)
	})

	t.Run("unknown marketplace", func(t *testing.T) {
		svc := new(mockChannelService)
		svc.On("SyncCategory", mock.Anything, id, integration.SyncCategoryAll).Return(nil, shared.ErrNotFound)

		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels/"+id.String()+"/sync", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)
	})
}

func TestChannelHandler_SyncAll(t *testing.T) {
	svc := new(mockChannelService)
	first := integration.NewSyncResult(integration.SyncCategoryAll)
	first.Finish()
	second := integration.FailedSyncResult(integration.SyncCategoryAll, integration.ErrMarketplaceInactive)
	outcomes := []appintegration.ChannelSyncOutcome{
		{MarketplaceID: uuid.New(), MarketplaceName: "Taobao", Result: first},
		{MarketplaceID: uuid.New(), MarketplaceName: "Douyin", Result: second},
	}
	svc.On("SyncAllActive", mock.Anything).Return(outcomes, nil)

	w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodPost, "/api/v1/channels/sync", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body []dto.ChannelSyncResponse
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body, 2)
	assert.Equal(t, "Taobao", body[0].MarketplaceName)
	assert.True(t, body[0].Result.Success)
	assert.False(t, body[1].Result.Success)
}

func TestChannelHandler_Health(t *testing.T) {
	id := uuid.New()

	t.Run("reports health result", func(t *testing.T) {
		svc := new(mockChannelService)
		svc.On("HealthCheck", mock.Anything, id).Return(&integration.HealthResult{
			Success: false,
			Message: "no health endpoint responded",
			Latency: 120 * time.Millisecond,
		}, nil)

		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodGet, "/api/v1/channels/"+id.String()+"/health", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var body dto.HealthCheckResponse
		require.NoError(t, json.Unmarshal(env.Data, &body))
		assert.False(t, body.Success)
		assert.Equal(t, int64(120), body.LatencyMs)
	})

	t.Run("upstream failure", func(t *testing.T) {
		svc := new(mockChannelService)
		svc.On("HealthCheck", mock.Anything, id).Return(nil, &integration.TransientAPIError{
			Endpoint: "/status",
			Attempts: 3,
			Err:      &integration.HTTPStatusError{StatusCode: 503},
		})

		w, env := perform(t, newChannelRouter(NewChannelHandler(svc, nil)), http.MethodGet, "/api/v1/channels/"+id.String()+"/health", nil)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeMarketplaceUnavailable, env.Error.Code)
	})
}

func TestChannelHandler_Jobs(t *testing.T) {
	marketplace := integration.Marketplace{Name: "Taobao"}
	marketplace.ID = uuid.New()
	job := scheduler.NewSyncJob(marketplace)
	result := integration.NewSyncResult(integration.SyncCategoryAll)
	result.SyncedCount = 3
	result.Finish()
	job.Start()
	job.Complete(result)

	t.Run("all jobs with default limit", func(t *testing.T) {
		history := new(mockJobHistory)
		history.On("GetJobHistory", defaultJobHistoryLimit).Return([]*scheduler.SyncJob{job})

		w, env := perform(t, newChannelRouter(NewChannelHandler(new(mockChannelService), history)), http.MethodGet, "/api/v1/sync/jobs", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var body []dto.SyncJobResponse
		require.NoError(t, json.Unmarshal(env.Data, &body))
		require.Len(t, body, 1)
		assert.Equal(t, string(scheduler.SyncJobStatusSuccess), body[0].Status)
		assert.Equal(t, 3, body[0].SyncedCount)
	})

	t.Run("per marketplace with limit", func(t *testing.T) {
		history := new(mockJobHistory)
		history.On("GetJobHistoryByMarketplace", marketplace.ID, 5).Return([]*scheduler.SyncJob{job})

		w, _ := perform(t, newChannelRouter(NewChannelHandler(new(mockChannelService), history)), http.MethodGet, "/api/v1/channels/"+marketplace.ID.String()+"/jobs?limit=5", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		history.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		w, env := perform(t, newChannelRouter(NewChannelHandler(new(mockChannelService), new(mockJobHistory))), http.MethodGet, "/api/v1/sync/jobs?limit=-1", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeInvalidInput, env.Error.Code)
	})

	t.Run("scheduler disabled", func(t *testing.T) {
		w, env := perform(t, newChannelRouter(NewChannelHandler(new(mockChannelService), nil)), http.MethodGet, "/api/v1/sync/jobs", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, string(env.Data))
	})
}
