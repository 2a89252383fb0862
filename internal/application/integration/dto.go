package integration

import (
	"github.com/google/uuid"

	"github.com/invsync/backend/internal/domain/integration"
)

// ConnectChannelCommand registers a new marketplace
type ConnectChannelCommand struct {
	Name     string
	Settings integration.Settings
}

// ChannelSyncOutcome is the result of one marketplace in a sync-all run
type ChannelSyncOutcome struct {
	MarketplaceID   uuid.UUID               `json:"marketplace_id"`
	MarketplaceName string                  `json:"marketplace_name"`
	Result          *integration.SyncResult `json:"result"`
}
