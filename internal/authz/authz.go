// Package authz resolves a caller identity to a role and reports whether a
// role may perform manager operations. Per-trip actor and pre-state checks
// are made by the trip service, not here.
package authz

import (
	"context"

	"ride/internal/domain"
	"ride/internal/repository"
)

// Resolver maps an authenticated user id to its role, reading the users
// table the same way C6 of the component design names as the source of truth.
type Resolver struct {
	users repository.UserRepository
}

func NewResolver(users repository.UserRepository) *Resolver {
	return &Resolver{users: users}
}

// RoleOf returns the caller's role. Unknown users default to passenger, the
// same default the teacher's registration flow assumes for a bare account.
func (r *Resolver) RoleOf(ctx context.Context, userID string) (domain.Role, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return domain.RolePassenger, nil
		}
		return "", err
	}
	if user.Role == "" {
		return domain.RolePassenger, nil
	}
	return user.Role, nil
}

// IsManager reports whether role is allowed to perform manager-only operations.
func IsManager(role domain.Role) bool {
	return role == domain.RoleManager || role == domain.RoleAdmin
}
