package usecase

import (
	"github.com/lambo313/auralumic-sub001/internal/data/entity"

	"github.com/google/uuid"
)

// Identity is the authenticated caller. It is passed explicitly into every
// use case; nothing reads it from ambient state.
type Identity struct {
	UserID uuid.UUID
	Role   entity.UserRole
}

func (id Identity) Authenticated() bool {
	return id.UserID != uuid.Nil
}

func (id Identity) IsAdmin() bool {
	return id.Role == entity.RoleAdmin
}
