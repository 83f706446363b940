package auth

import "context"

// UserStore supplies user records to the auth subsystem. Uniqueness of the
// normalized username is enforced by the backing store.
type UserStore interface {
	// FindByUsername looks up a user by the already-normalized username.
	FindByUsername(ctx context.Context, username string) (*User, error)
	// Find looks up a user by id, used when resolving a refresh token
	// back to its owner.
	Find(ctx context.Context, id string) (*User, error)
}

// RoleStore resolves role names into permission sets and maintains the
// permission catalog.
type RoleStore interface {
	// PermissionsForRole returns the permission keys granted to a role.
	// An unknown role resolves to an empty set, not an error.
	PermissionsForRole(ctx context.Context, role string) ([]string, error)
	// EnsurePermissions inserts any missing catalog entries.
	EnsurePermissions(ctx context.Context, perms []Permission) error
}
