package integration

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// MarketplaceType
// ---------------------------------------------------------------------------

// MarketplaceType is the closed set of supported marketplace integrations
type MarketplaceType string

const (
	// MarketplaceTaobao uses page-number pagination and MD5 request signing
	MarketplaceTaobao MarketplaceType = "TAOBAO"
	// MarketplaceDouyin uses cursor pagination and bearer token auth
	MarketplaceDouyin MarketplaceType = "DOUYIN"
)

// AllMarketplaceTypes returns all supported marketplace types
func AllMarketplaceTypes() []MarketplaceType {
	return []MarketplaceType{MarketplaceTaobao, MarketplaceDouyin}
}

// IsValid checks if the marketplace type is supported
func (t MarketplaceType) IsValid() bool {
	switch t {
	case MarketplaceTaobao, MarketplaceDouyin:
		return true
	}
	return false
}

// String returns the string representation
func (t MarketplaceType) String() string {
	return string(t)
}

// DisplayName returns a human readable name
func (t MarketplaceType) DisplayName() string {
	switch t {
	case MarketplaceTaobao:
		return "Taobao"
	case MarketplaceDouyin:
		return "Douyin Shop"
	default:
		return string(t)
	}
}

// ---------------------------------------------------------------------------
// MarketplaceStatus
// ---------------------------------------------------------------------------

// MarketplaceStatus is the connection status of a marketplace
type MarketplaceStatus string

const (
	MarketplaceStatusActive   MarketplaceStatus = "active"
	MarketplaceStatusInactive MarketplaceStatus = "inactive"
	MarketplaceStatusError    MarketplaceStatus = "error"
)

// IsValid checks if the status is known
func (s MarketplaceStatus) IsValid() bool {
	switch s {
	case MarketplaceStatusActive, MarketplaceStatusInactive, MarketplaceStatusError:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Marketplace Entity
// ---------------------------------------------------------------------------

// Marketplace is a connected external sales channel.
// LastSync is the incremental fetch watermark and is only moved by a
// successful sync.
type Marketplace struct {
	shared.BaseEntity
	Name     string
	Type     MarketplaceType
	Status   MarketplaceStatus
	Settings Settings
	LastSync *time.Time
}

// NewMarketplace creates a marketplace from validated settings
func NewMarketplace(name string, settings Settings) (*Marketplace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMarketplaceNameRequired
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &Marketplace{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Type:       settings.Type,
		Status:     MarketplaceStatusActive,
		Settings:   settings,
	}, nil
}

// IsActive reports whether the marketplace participates in scheduled syncs
func (m *Marketplace) IsActive() bool {
	return m.Status == MarketplaceStatusActive
}

// ---------------------------------------------------------------------------
// Repository Port
// ---------------------------------------------------------------------------

// MarketplaceRepository defines the interface for marketplace persistence
type MarketplaceRepository interface {
	// Create inserts a new marketplace
	Create(ctx context.Context, m *Marketplace) error

	// FindByID finds a marketplace by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Marketplace, error)

	// FindActive returns all marketplaces with status active
	FindActive(ctx context.Context) ([]Marketplace, error)

	// UpdateLastSync moves the sync watermark
	UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error

	// UpdateStatus sets the connection status
	UpdateStatus(ctx context.Context, id uuid.UUID, status MarketplaceStatus) error

	// Delete removes the marketplace and all its inventory, orders and stock
	// adjustments in a single transaction
	Delete(ctx context.Context, id uuid.UUID) error
}
