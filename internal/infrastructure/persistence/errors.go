package persistence

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/invsync/backend/internal/domain/shared"
)

// dbError maps a GORM error to the domain error vocabulary.
// Record-not-found becomes shared.ErrNotFound; a unique violation matches
// both shared.ErrAlreadyExists and *shared.PersistenceError; anything else
// is wrapped in *shared.PersistenceError.
func dbError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", shared.ErrAlreadyExists, shared.NewPersistenceError(op, err))
	default:
		return shared.NewPersistenceError(op, err)
	}
}
