package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Fehlerklassen der Services. Ursachen werden mit %w angehängt, Handler prüfen per errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrUpstream       = errors.New("upstream failure")
	ErrPersistence    = errors.New("persistence failure")
	ErrExportDisabled = errors.New("report export is not configured")
)

// dbError übersetzt gorm.ErrRecordNotFound in ErrNotFound, alles andere in ErrPersistence.
func dbError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
