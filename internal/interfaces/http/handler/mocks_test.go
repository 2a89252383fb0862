package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appintegration "github.com/invsync/backend/internal/application/integration"
	appinventory "github.com/invsync/backend/internal/application/inventory"
	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/infrastructure/scheduler"
	"github.com/invsync/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockChannelService struct {
	mock.Mock
}

func (m *mockChannelService) ConnectChannel(ctx context.Context, cmd appintegration.ConnectChannelCommand) (*integration.Marketplace, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Marketplace), args.Error(1)
}

func (m *mockChannelService) DeleteChannel(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockChannelService) SyncAllActive(ctx context.Context) ([]appintegration.ChannelSyncOutcome, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appintegration.ChannelSyncOutcome), args.Error(1)
}

func (m *mockChannelService) SyncCategory(ctx context.Context, id uuid.UUID, category integration.SyncCategory) (*integration.SyncResult, error) {
	args := m.Called(ctx, id, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncResult), args.Error(1)
}

func (m *mockChannelService) HealthCheck(ctx context.Context, id uuid.UUID) (*integration.HealthResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.HealthResult), args.Error(1)
}

type mockJobHistory struct {
	mock.Mock
}

func (m *mockJobHistory) GetJobHistory(limit int) []*scheduler.SyncJob {
	return m.Called(limit).Get(0).([]*scheduler.SyncJob)
}

func (m *mockJobHistory) GetJobHistoryByMarketplace(marketplaceID uuid.UUID, limit int) []*scheduler.SyncJob {
	return m.Called(marketplaceID, limit).Get(0).([]*scheduler.SyncJob)
}

type mockStockAdjuster struct {
	mock.Mock
}

func (m *mockStockAdjuster) AdjustStock(ctx context.Context, cmd appinventory.AdjustStockCommand) (*appinventory.AdjustStockResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.AdjustStockResult), args.Error(1)
}

type mockPinger struct {
	err error
}

func (p mockPinger) Ping(context.Context) error { return p.err }

// envelope mirrors dto.Response with a raw data payload
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

func perform(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Code != http.StatusNoContent && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}
