package models

import (
	"fmt"
	"strings"
)

// MaxPlayerIDLength ограничивает длину id игрока.
const MaxPlayerIDLength = 128

// ValidatePlayerID проверяет, что id можно использовать ключом записи прогресса
// в любом бэкенде: непустой, не длиннее MaxPlayerIDLength, без '/', не "." и
// не "..", не вида "__x__" (зарезервировано Firestore).
func ValidatePlayerID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidPlayerID)
	case len(id) > MaxPlayerIDLength:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidPlayerID, MaxPlayerIDLength)
	case strings.Contains(id, "/"):
		return fmt.Errorf("%w: contains '/'", ErrInvalidPlayerID)
	case id == "." || id == "..":
		return fmt.Errorf("%w: %q is reserved", ErrInvalidPlayerID, id)
	case len(id) >= 4 && strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__"):
		return fmt.Errorf("%w: %q is reserved", ErrInvalidPlayerID, id)
	}
	return nil
}
