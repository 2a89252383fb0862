package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/invsync/backend/internal/domain/integration"
)

// MarketplaceModel is the persistence model for the Marketplace entity.
// Settings are stored as the JSON tagged union produced by integration.Settings.
type MarketplaceModel struct {
	BaseModel
	Name     string                        `gorm:"type:varchar(100);not null"`
	Type     integration.MarketplaceType   `gorm:"type:varchar(20);not null;index"`
	Status   integration.MarketplaceStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	Settings datatypes.JSON                `gorm:"not null"`
	LastSync *time.Time
}

// TableName returns the table name for GORM
func (MarketplaceModel) TableName() string {
	return "marketplaces"
}

// ToDomain converts the persistence model to a domain Marketplace entity.
// Stored settings are decoded and validated; a corrupt row is an error.
func (m *MarketplaceModel) ToDomain() (*integration.Marketplace, error) {
	var settings integration.Settings
	if err := json.Unmarshal(m.Settings, &settings); err != nil {
		return nil, fmt.Errorf("marketplace %s settings: %w", m.ID, err)
	}
	return &integration.Marketplace{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Type:       m.Type,
		Status:     m.Status,
		Settings:   settings,
		LastSync:   m.LastSync,
	}, nil
}

// MarketplaceModelFromDomain creates a new persistence model from a domain Marketplace entity.
func MarketplaceModelFromDomain(mp *integration.Marketplace) (*MarketplaceModel, error) {
	raw, err := json.Marshal(mp.Settings)
	if err != nil {
		return nil, err
	}
	m := &MarketplaceModel{
		Name:     mp.Name,
		Type:     mp.Type,
		Status:   mp.Status,
		Settings: datatypes.JSON(raw),
		LastSync: mp.LastSync,
	}
	m.FromDomainBaseEntity(mp.BaseEntity)
	return m, nil
}
