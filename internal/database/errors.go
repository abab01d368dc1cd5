package database

import (
	"fmt"

	"storyquest-server/internal/models"
)

// storageError помечает сбой хранилища как ErrStorageUnavailable, сохраняя исходную ошибку.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrStorageUnavailable, err)
}
