// Package permissions is the permission registry: permission names and the
// usernames each one is granted to.
package permissions

import (
	"context"

	"github.com/dmitrijs2005/realty/internal/models"
)

// Repository persists permissions and grants. Operations addressing a
// permission by name return common.ErrorNotFound when it is not registered.
// Grants store bare usernames; they are never checked against accounts here.
type Repository interface {
	// Create registers name with no grantees, or returns common.ErrorConflict.
	Create(ctx context.Context, name string) error
	// Names lists permissions in registration order.
	Names(ctx context.Context) ([]string, error)
	// Get returns the permission with its grantees in ascending order.
	Get(ctx context.Context, name string) (*models.Permission, error)

	// Grant adds username to the grantees; granting twice is a no-op.
	Grant(ctx context.Context, name, username string) error
	// Revoke removes username and reports whether it was a grantee.
	Revoke(ctx context.Context, name, username string) (bool, error)
	IsGranted(ctx context.Context, name, username string) (bool, error)
	// GrantedTo lists, in registration order, the permissions held by username.
	GrantedTo(ctx context.Context, username string) ([]string, error)
	// RevokeAll drops every grant held by username and returns how many went.
	RevokeAll(ctx context.Context, username string) (int64, error)
}
