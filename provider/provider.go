// Package provider defines the external identity and data provider the
// session client consumes.
package provider

import (
	"context"

	"github.com/jrsteele09/postureiq-client/activity"
	"github.com/jrsteele09/postureiq-client/sessions"
	"github.com/jrsteele09/postureiq-client/users"
)

// IdentityProvider is everything the client needs from the provider.
// GetSession and GetUser return nil without error when signed out.
type IdentityProvider interface {
	sessions.Fetcher
	sessions.AuthStateSource
	activity.Querier

	GetUser(ctx context.Context) (*users.UserRecord, error)
	SignOut(ctx context.Context) error
}
