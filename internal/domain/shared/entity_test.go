package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEntity(t *testing.T) {
	a := NewBaseEntity()
	b := NewBaseEntity()

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)
	assert.Equal(t, time.UTC, a.CreatedAt.Location())
}

func TestBaseEntity_Touch(t *testing.T) {
	e := NewBaseEntity()
	e.UpdatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	created := e.CreatedAt

	e.Touch()

	assert.True(t, e.UpdatedAt.After(created) || e.UpdatedAt.Equal(created))
	assert.Equal(t, time.UTC, e.UpdatedAt.Location())
	assert.Equal(t, created, e.CreatedAt)
}
