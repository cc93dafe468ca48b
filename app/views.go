package app

import (
	"context"
	"time"

	"github.com/jrsteele09/postureiq-client/activity"
	"github.com/jrsteele09/postureiq-client/identity"
	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/menu"
	"github.com/jrsteele09/postureiq-client/sessions"
	"github.com/rs/zerolog/log"
)

// NavbarView is what the navigation bar renders.
type NavbarView struct {
	Loading  bool // render the skeleton placeholder
	LoggedIn bool
	Identity identity.Identity
	Menu     menu.State
	Items    []menu.Item
}

// Navbar builds the navbar. The user profile is only fetched once the
// session check has resolved to a session; a failed fetch falls back to the
// generic identity.
func (a *App) Navbar(ctx context.Context) NavbarView {
	snap := a.store.Snapshot()
	view := NavbarView{Loading: snap.Loading, Menu: a.menu.State()}
	if snap.Loading || snap.Session == nil {
		return view
	}

	view.LoggedIn = true
	view.Items = menu.DropdownItems()

	user, err := a.provider.GetUser(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch user for navbar")
		a.metrics.RecordAuthCheckFailure()
		user = nil
	}
	view.Identity = identity.ResolveOptional(user)
	return view
}

// SelectMenuItem closes the dropdown and acts on item. The logout entry
// signs out and returns home.
func (a *App) SelectMenuItem(ctx context.Context, item menu.Item) error {
	item, _ = a.menu.Select(item)
	if item.Logout {
		return a.SignOut(ctx, a.homePath)
	}
	if item.Path != "" {
		a.router.RedirectTo(item.Path)
	}
	return nil
}

// ProfileView is what the profile page renders.
type ProfileView struct {
	Identity   identity.Identity
	Email      string
	Joined     time.Time // zero when the provider did not report it
	Heatmap    []activity.Cell
	ActiveDays int
	// ActivityUnavailable is set when the activity query failed and the
	// heatmap is the empty fallback.
	ActivityUnavailable bool
}

// LoadProfile fetches the user and their activity. Without a user the
// router is sent to the login page and ErrNotLoggedIn is returned.
func (a *App) LoadProfile(ctx context.Context) (*ProfileView, error) {
	user, err := a.provider.GetUser(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch user for profile")
		a.metrics.RecordAuthCheckFailure()
		user = nil
	}
	if user == nil {
		a.metrics.RecordRedirect(a.loginPath)
		a.router.RedirectTo(a.loginPath)
		return nil, internalerrors.ErrNotLoggedIn
	}

	cells, err := a.loader.Load(ctx, user.ID, a.today())
	view := &ProfileView{
		Identity:            identity.Resolve(*user),
		Email:               user.Email,
		Joined:              user.CreatedAt,
		Heatmap:             cells,
		ActiveDays:          activity.ActiveCount(cells),
		ActivityUnavailable: err != nil,
	}
	return view, nil
}

// SignOut clears the local session and redirects to redirectPath before
// asking the provider to sign out. A provider failure is returned for
// reporting only and is not retried.
func (a *App) SignOut(ctx context.Context, redirectPath string) error {
	a.store.SetSession(nil)
	a.metrics.RecordTransition(string(sessions.EventSignedOut))
	if redirectPath != "" {
		a.router.RedirectTo(redirectPath)
	}
	if err := a.provider.SignOut(ctx); err != nil {
		log.Warn().Err(err).Msg("provider sign out failed, local session cleared")
		a.metrics.RecordSignOutFailure()
		if !internalerrors.Is(err, internalerrors.ErrSignOutFailed) {
			err = internalerrors.Wrapf(internalerrors.ErrSignOutFailed, "%v", err)
		}
		return err
	}
	return nil
}

// SignOutFromProfile signs out and returns to the login page.
func (a *App) SignOutFromProfile(ctx context.Context) error {
	return a.SignOut(ctx, a.loginPath)
}

// CompleteSignIn applies a session obtained by an explicit sign-in flow and
// navigates to returnURL, or home when it is empty.
func (a *App) CompleteSignIn(session *sessions.Session, returnURL string) error {
	if session == nil {
		return internalerrors.Wrapf(internalerrors.ErrInvalidSession, "no session")
	}
	if err := session.Validate(); err != nil {
		return err
	}
	a.store.SetSession(session)
	a.metrics.RecordTransition(string(sessions.EventSignedIn))
	if returnURL == "" {
		returnURL = a.homePath
	}
	a.router.RedirectTo(returnURL)
	return nil
}
