package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is embedded by every aggregate that owns a row: products,
// inventory positions, marketplaces and orders. Times are kept in UTC so
// watermarks and audit rows compare the same across drivers.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch marks a real mutation. Aggregates call it only after a field changed,
// so an unchanged re-sync keeps the stored updated_at.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}
