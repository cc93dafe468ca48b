package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/postureiq-client/activity"
	"github.com/jrsteele09/postureiq-client/app"
	"github.com/jrsteele09/postureiq-client/identity"
	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/internal/utils"
	"github.com/jrsteele09/postureiq-client/menu"
	"github.com/jrsteele09/postureiq-client/navigation"
	"github.com/jrsteele09/postureiq-client/provider/fakeprovider"
	"github.com/jrsteele09/postureiq-client/sessions"
	"github.com/jrsteele09/postureiq-client/users"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)

type testFixture struct {
	provider *fakeprovider.Provider
	router   *navigation.MemoryRouter
	app      *app.App
}

func setupTestFixture(t *testing.T, start string, options ...app.Option) *testFixture {
	t.Helper()

	p := fakeprovider.New()
	router := navigation.NewMemoryRouter(start)
	options = append([]app.Option{
		app.WithNowTime(func() time.Time { return fixedNow }),
		app.WithLocation(time.UTC),
	}, options...)
	a, err := app.New(p, router, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &testFixture{provider: p, router: router, app: a}
}

func testSession() *sessions.Session {
	return &sessions.Session{
		ID:          "session-1",
		AccessToken: "access",
		UserID:      "user-1",
		Email:       "jane@x.com",
		ExpiresAt:   fixedNow.Add(time.Hour),
	}
}

func testUser() *users.UserRecord {
	return &users.UserRecord{
		ID:              "user-1",
		Email:           "jane@x.com",
		DisplayNameHint: utils.Ptr("Jane Doe"),
		CreatedAt:       time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func (f *testFixture) signedIn() {
	f.provider.SetSession(testSession())
	f.provider.SetUser(testUser())
}

func (f *testFixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.app.Start(context.Background()))
	select {
	case <-f.app.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session check")
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := app.New(nil, navigation.NewMemoryRouter("/"))
	require.ErrorContains(t, err, "identity provider is required")

	_, err = app.New(fakeprovider.New(), nil)
	require.ErrorContains(t, err, "router is required")
}

func TestApp_StartTwice(t *testing.T) {
	f := setupTestFixture(t, "/")
	f.start(t)
	require.ErrorIs(t, f.app.Start(context.Background()), internalerrors.ErrAlreadyInitialized)
}

func TestApp_NavbarWhileLoading(t *testing.T) {
	f := setupTestFixture(t, "/Profile")
	f.signedIn()
	f.provider.HoldSessions()

	require.NoError(t, f.app.Start(context.Background()))

	view := f.app.Navbar(context.Background())
	require.True(t, view.Loading)
	require.False(t, view.LoggedIn)
	require.True(t, f.app.Decide("/Profile").Pending)
	require.Equal(t, "/Profile", f.router.CurrentPath(), "no redirect while loading")
	_, userCalls, _ := f.provider.Calls()
	require.Zero(t, userCalls, "user is not fetched while loading")

	f.provider.ReleaseSessions()
	<-f.app.Ready()

	view = f.app.Navbar(context.Background())
	require.False(t, view.Loading)
	require.True(t, view.LoggedIn)
	require.Equal(t, identity.Identity{DisplayName: "Jane Doe", AvatarInitial: "J"}, view.Identity)
	require.Len(t, view.Items, 4)
	require.Equal(t, "/Profile", f.router.CurrentPath())
}

func TestApp_SignedOutOnProtectedPathRedirects(t *testing.T) {
	f := setupTestFixture(t, "/Profile")
	f.start(t)

	require.Equal(t, "/Login", f.router.CurrentPath())
	view := f.app.Navbar(context.Background())
	require.False(t, view.LoggedIn)
	require.Empty(t, view.Items)
}

func TestApp_SessionCheckFailureIsSignedOut(t *testing.T) {
	f := setupTestFixture(t, "/Dashboard")
	f.provider.Fail(errors.New("network down"), nil, nil)
	f.start(t)

	require.False(t, f.app.Session().Snapshot().Loading)
	require.Nil(t, f.app.Session().Snapshot().Session)
	require.Equal(t, "/Login", f.router.CurrentPath())
}

func TestApp_ProviderEventsReachViews(t *testing.T) {
	f := setupTestFixture(t, "/")
	f.start(t)
	require.False(t, f.app.Navbar(context.Background()).LoggedIn)

	f.provider.SignIn(testSession(), &users.UserRecord{ID: "user-1", Email: "jane@x.com"})

	view := f.app.Navbar(context.Background())
	require.True(t, view.LoggedIn)
	require.Equal(t, identity.Identity{DisplayName: "jane", AvatarInitial: "J"}, view.Identity)
}

func TestApp_NavbarUserFetchFailure(t *testing.T) {
	f := setupTestFixture(t, "/")
	f.signedIn()
	f.provider.Fail(nil, errors.New("userinfo down"), nil)
	f.start(t)

	view := f.app.Navbar(context.Background())
	require.True(t, view.LoggedIn)
	require.Equal(t, identity.Identity{DisplayName: "User", AvatarInitial: "U"}, view.Identity)
}

func TestApp_LoadProfile(t *testing.T) {
	f := setupTestFixture(t, "/Profile")
	f.signedIn()
	f.provider.Activity.Append("user-1", activity.MustParseDate("2026-10-19"), activity.MustParseDate("2026-09-01"))
	f.start(t)

	view, err := f.app.LoadProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, identity.Identity{DisplayName: "Jane Doe", AvatarInitial: "J"}, view.Identity)
	require.Equal(t, "jane@x.com", view.Email)
	require.Equal(t, testUser().CreatedAt, view.Joined)
	require.Len(t, view.Heatmap, activity.WindowDays)
	require.Equal(t, "2026-10-19", view.Heatmap[59].Date.String())
	require.True(t, view.Heatmap[59].Active)
	require.Equal(t, 2, view.ActiveDays)
	require.False(t, view.ActivityUnavailable)
}

func TestApp_LoadProfileUsesConfiguredZone(t *testing.T) {
	// 23:30 UTC is already the next day in Auckland.
	loc := time.FixedZone("NZDT", 13*60*60)
	f := setupTestFixture(t, "/Profile", app.WithLocation(loc))
	f.signedIn()
	f.start(t)

	view, err := f.app.LoadProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2026-10-20", view.Heatmap[59].Date.String())
}

func TestApp_LoadProfileDefaultsToUTC(t *testing.T) {
	local := time.Local
	time.Local = time.FixedZone("NZDT", 13*60*60)
	t.Cleanup(func() { time.Local = local })

	p := fakeprovider.New()
	router := navigation.NewMemoryRouter("/Profile")
	a, err := app.New(p, router, app.WithNowTime(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	f := &testFixture{provider: p, router: router, app: a}
	f.signedIn()
	f.start(t)

	view, err := f.app.LoadProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2026-10-19", view.Heatmap[59].Date.String())
}

func TestApp_LoadProfileWithoutUser(t *testing.T) {
	f := setupTestFixture(t, "/")
	f.start(t)

	view, err := f.app.LoadProfile(context.Background())
	require.ErrorIs(t, err, internalerrors.ErrNotLoggedIn)
	require.Nil(t, view)
	require.Equal(t, "/Login", f.router.CurrentPath())
}

func TestApp_LoadProfileActivityFailure(t *testing.T) {
	f := setupTestFixture(t, "/Profile")
	f.signedIn()
	f.provider.Activity.Append("user-1", activity.MustParseDate("2026-10-19"))
	f.provider.Activity.FailWith(errors.New("db down"))
	f.start(t)

	view, err := f.app.LoadProfile(context.Background())
	require.NoError(t, err)
	require.True(t, view.ActivityUnavailable)
	require.Len(t, view.Heatmap, activity.WindowDays)
	require.Zero(t, view.ActiveDays)
}

func TestApp_NavbarLogout(t *testing.T) {
	f := setupTestFixture(t, "/")
	f.signedIn()
	f.start(t)
	f.app.Menu().ToggleDropdown()

	items := menu.DropdownItems()
	require.NoError(t, f.app.SelectMenuItem(context.Background(), items[len(items)-1]))

	require.Nil(t, f.app.Session().Snapshot().Session)
	require.False(t, f.app.Menu().State().DropdownOpen)
	require.Equal(t, "/", f.router.CurrentPath())
	_, _, signOutCalls := f.provider.Calls()
	require.Equal(t, 1, signOutCalls)
}

func TestApp_ProfileLogout(t *testing.T) {
	f := setupTestFixture(t, "/Profile")
	f.signedIn()
	f.start(t)

	require.NoError(t, f.app.SignOutFromProfile(context.Background()))
	require.Equal(t, "/Login", f.router.CurrentPath())
	require.Nil(t, f.app.Session().Snapshot().Session)
}

func TestApp_SignOutFailureStillClearsSession(t *testing.T) {
	f := setupTestFixture(t, "/")
	f.signedIn()
	f.start(t)
	require.NotNil(t, f.app.Session().Snapshot().Session)

	f.provider.Fail(nil, nil, errors.New("provider unreachable"))
	err := f.app.SignOut(context.Background(), "/")

	require.ErrorIs(t, err, internalerrors.ErrSignOutFailed)
	require.Nil(t, f.app.Session().Snapshot().Session)
	require.False(t, f.app.Navbar(context.Background()).LoggedIn)
	require.Equal(t, "/", f.router.CurrentPath())
}

func TestApp_SignOutClearsSessionBeforeProviderResponds(t *testing.T) {
	f := setupTestFixture(t, "/Profile")
	f.signedIn()
	f.start(t)
	require.NotNil(t, f.app.Session().Snapshot().Session)

	f.provider.HoldSignOut()
	done := make(chan error, 1)
	go func() { done <- f.app.SignOut(context.Background(), "/") }()

	require.Eventually(t, func() bool {
		return f.router.CurrentPath() == "/"
	}, 2*time.Second, 5*time.Millisecond, "redirect issued while provider sign out pending")
	require.False(t, f.app.Session().Snapshot().Authenticated())
	select {
	case <-done:
		t.Fatal("SignOut returned before the provider responded")
	default:
	}

	f.provider.ReleaseSignOut()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("SignOut did not return after release")
	}
	require.Nil(t, f.app.Session().Snapshot().Session)
}

func TestApp_SelectMenuItemNavigates(t *testing.T) {
	f := setupTestFixture(t, "/")
	f.signedIn()
	f.start(t)
	f.app.Menu().ToggleDropdown()

	require.NoError(t, f.app.SelectMenuItem(context.Background(), menu.DropdownItems()[2]))
	require.Equal(t, menu.SettingsPath, f.router.CurrentPath())
	require.False(t, f.app.Menu().State().DropdownOpen)
}

func TestApp_RouteChangeClosesMobileMenu(t *testing.T) {
	f := setupTestFixture(t, "/")
	f.start(t)
	f.app.Menu().ToggleMobile()
	require.True(t, f.app.Navbar(context.Background()).Menu.MobilePanelOpen)

	f.router.Navigate("/about")
	require.False(t, f.app.Menu().State().MobilePanelOpen)
}

func TestApp_CompleteSignIn(t *testing.T) {
	f := setupTestFixture(t, "/Login")
	f.start(t)

	require.ErrorIs(t, f.app.CompleteSignIn(nil, ""), internalerrors.ErrInvalidSession)
	require.ErrorIs(t, f.app.CompleteSignIn(&sessions.Session{ID: "x"}, ""), internalerrors.ErrInvalidSession)

	require.NoError(t, f.app.CompleteSignIn(testSession(), "/Profile"))
	require.Equal(t, "user-1", f.app.Session().Snapshot().Session.UserID)
	require.Equal(t, "/Profile", f.router.CurrentPath())
}

func TestApp_CloseStopsEvents(t *testing.T) {
	f := setupTestFixture(t, "/")
	f.start(t)

	require.NoError(t, f.app.Close())
	require.NoError(t, f.app.Close())
	require.Zero(t, f.provider.Subscribers())

	f.provider.SignIn(testSession(), testUser())
	require.Nil(t, f.app.Session().Snapshot().Session)
	require.ErrorIs(t, f.app.Start(context.Background()), internalerrors.ErrStoreClosed)
}

func TestApp_CloseDuringSessionCheck(t *testing.T) {
	f := setupTestFixture(t, "/Profile")
	f.signedIn()
	f.provider.HoldSessions()
	require.NoError(t, f.app.Start(context.Background()))

	require.NoError(t, f.app.Close())
	f.provider.ReleaseSessions()
	<-f.app.Ready()

	require.True(t, f.app.Session().Snapshot().Loading)
	require.Equal(t, "/Profile", f.router.CurrentPath())
}
