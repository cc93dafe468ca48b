// Package oidcprovider implements provider.IdentityProvider against an
// OpenID Connect issuer using the authorization-code flow with PKCE.
package oidcprovider

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/jrsteele09/postureiq-client/activity"
	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/provider"
	"github.com/jrsteele09/postureiq-client/sessions"
	"github.com/jrsteele09/postureiq-client/token"
	"github.com/jrsteele09/postureiq-client/users"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// flowTTL bounds how long a login started with LoginURL may take.
const flowTTL = 10 * time.Minute

// Config describes the relying party.
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	HTTPClient   *http.Client
}

type discoveryClaims struct {
	RevocationEndpoint string `json:"revocation_endpoint"`
}

// Provider talks to the issuer and keeps credentials in a token.Repo.
type Provider struct {
	provider.Broadcaster

	oidcProvider  *oidc.Provider
	oauth2Config  *oauth2.Config
	verifier      *oidc.IDTokenVerifier
	httpClient    *http.Client
	revocationURL string

	tokens   token.Repo
	activity activity.Repo
	flows    FlowRepo
	nowTime  func() time.Time

	refreshLock sync.Mutex
}

var _ provider.IdentityProvider = (*Provider)(nil)

// Option modifies a Provider at construction.
type Option func(*Provider)

// WithActivityRepo sets where QueryActivity reads from.
func WithActivityRepo(repo activity.Repo) Option {
	return func(p *Provider) {
		p.activity = repo
	}
}

func WithFlowRepo(repo FlowRepo) Option {
	return func(p *Provider) {
		if repo != nil {
			p.flows = repo
		}
	}
}

// WithNowTime sets the clock used for expiry checks.
func WithNowTime(nowTime func() time.Time) Option {
	return func(p *Provider) {
		if nowTime != nil {
			p.nowTime = nowTime
		}
	}
}

// New runs OIDC discovery against cfg.IssuerURL.
func New(ctx context.Context, cfg Config, tokens token.Repo, options ...Option) (*Provider, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("[oidcprovider.New] issuer url is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[oidcprovider.New] client id is required")
	}
	if tokens == nil {
		return nil, errors.New("[oidcprovider.New] token repo is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	oidcProvider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), cfg.IssuerURL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[oidcprovider.New] failed to create OIDC provider")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}
	}

	var disc discoveryClaims
	if err := oidcProvider.Claims(&disc); err != nil {
		log.Debug().Err(err).Msg("issuer discovery has no extra claims")
	}

	p := &Provider{
		oidcProvider: oidcProvider,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oidcProvider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		verifier:      oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		httpClient:    httpClient,
		revocationURL: disc.RevocationEndpoint,
		tokens:        tokens,
		flows:         NewInMemoryFlowRepo(),
		nowTime:       time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return oidc.ClientContext(ctx, p.httpClient)
}

// LoginURL starts a login and returns the URL to open and its state value.
func (p *Provider) LoginURL(returnURL string) (authURL, state string, err error) {
	state = uuid.New().String()
	flow := &FlowState{
		CodeVerifier: oauth2.GenerateVerifier(),
		Nonce:        uuid.New().String(),
		ReturnURL:    returnURL,
		CreatedAt:    p.nowTime(),
	}
	if err := p.flows.Upsert(state, flow); err != nil {
		return "", "", pkgerrors.Wrap(err, "[Provider.LoginURL] failed to store login state")
	}
	authURL = p.oauth2Config.AuthCodeURL(state,
		oidc.Nonce(flow.Nonce),
		oauth2.S256ChallengeOption(flow.CodeVerifier),
	)
	return authURL, state, nil
}

// Exchange completes a login started with LoginURL. On success the
// credentials are persisted and SIGNED_IN is emitted.
func (p *Provider) Exchange(ctx context.Context, state, code string) (*sessions.Session, string, error) {
	flow, err := p.flows.Get(state)
	if err != nil {
		return nil, "", internalerrors.Wrapf(internalerrors.ErrInvalidState, "%v", err)
	}
	// Clean up state after use
	if err := p.flows.Delete(state); err != nil {
		return nil, "", pkgerrors.Wrap(err, "[Provider.Exchange] failed to delete login state")
	}
	if p.nowTime().Sub(flow.CreatedAt) > flowTTL {
		return nil, "", internalerrors.Wrapf(internalerrors.ErrInvalidState, "login expired")
	}

	ctx = p.clientContext(ctx)
	oauth2Token, err := p.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(flow.CodeVerifier))
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, "[Provider.Exchange] token exchange failed")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, "", errors.New("[Provider.Exchange] no ID token in response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, "[Provider.Exchange] ID token verification failed")
	}
	var claims struct {
		Nonce string `json:"nonce"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, "", pkgerrors.Wrap(err, "[Provider.Exchange] failed to extract claims")
	}
	if claims.Nonce != flow.Nonce {
		return nil, "", internalerrors.Wrapf(internalerrors.ErrInvalidState, "nonce mismatch")
	}

	creds := token.FromOAuth2(oauth2Token)
	session, err := token.SessionFromCredentials(creds)
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, "[Provider.Exchange] unusable credentials")
	}
	if err := p.tokens.Save(ctx, creds); err != nil {
		return nil, "", pkgerrors.Wrap(err, "[Provider.Exchange] failed to save credentials")
	}

	log.Info().Str("user_id", session.UserID).Msg("signed in")
	p.Emit(sessions.AuthEvent{Type: sessions.EventSignedIn, Session: session})
	return session, flow.ReturnURL, nil
}

// GetSession returns the stored session, refreshing it first if it has
// expired. No stored credentials is not an error.
func (p *Provider) GetSession(ctx context.Context) (*sessions.Session, error) {
	creds, err := p.currentCredentials(ctx)
	if err != nil || creds == nil {
		return nil, err
	}
	return token.SessionFromCredentials(creds)
}

// currentCredentials loads the stored credentials and emits TOKEN_REFRESHED
// if they had to be refreshed. The event is emitted after refreshLock is
// released so listeners may call back into the provider.
func (p *Provider) currentCredentials(ctx context.Context) (*token.Credentials, error) {
	creds, refreshed, err := p.loadCredentials(ctx)
	if err != nil || !refreshed {
		return creds, err
	}
	session, err := token.SessionFromCredentials(creds)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("user_id", session.UserID).Msg("token refreshed")
	p.Emit(sessions.AuthEvent{Type: sessions.EventTokenRefreshed, Session: session})
	return creds, nil
}

func (p *Provider) loadCredentials(ctx context.Context) (*token.Credentials, bool, error) {
	p.refreshLock.Lock()
	defer p.refreshLock.Unlock()

	creds, err := p.tokens.Load(ctx)
	if internalerrors.Is(err, internalerrors.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "[Provider.loadCredentials] failed to load credentials")
	}
	if !creds.Expired(p.nowTime()) {
		return creds, false, nil
	}
	if !creds.CanRefresh() {
		log.Debug().Msg("stored credentials expired without refresh token")
		if err := p.tokens.Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to delete expired credentials")
		}
		return nil, false, nil
	}

	refreshed, err := p.refresh(ctx, creds)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			// The issuer rejected the refresh token; it will never work again.
			if delErr := p.tokens.Delete(ctx); delErr != nil {
				log.Warn().Err(delErr).Msg("failed to delete rejected credentials")
			}
		}
		return nil, false, internalerrors.Wrapf(internalerrors.ErrAuthCheckFailed, "refresh: %v", err)
	}
	return refreshed, true, nil
}

func (p *Provider) refresh(ctx context.Context, creds *token.Credentials) (*token.Credentials, error) {
	old := creds.OAuth2()
	// Force the token source to refresh regardless of its own clock.
	old.Expiry = time.Unix(1, 0)

	t, err := p.oauth2Config.TokenSource(p.clientContext(ctx), old).Token()
	if err != nil {
		return nil, err
	}
	refreshed := token.FromOAuth2(t)
	if refreshed.IDToken == "" {
		refreshed.IDToken = creds.IDToken
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = creds.RefreshToken
	}
	if err := p.tokens.Save(ctx, refreshed); err != nil {
		return nil, pkgerrors.Wrap(err, "[Provider.refresh] failed to save credentials")
	}
	return refreshed, nil
}

// GetUser fetches the profile from the userinfo endpoint.
func (p *Provider) GetUser(ctx context.Context) (*users.UserRecord, error) {
	creds, err := p.currentCredentials(ctx)
	if err != nil || creds == nil {
		return nil, err
	}

	info, err := p.oidcProvider.UserInfo(p.clientContext(ctx), oauth2.StaticTokenSource(creds.OAuth2()))
	if err != nil {
		return nil, internalerrors.Wrapf(internalerrors.ErrAuthCheckFailed, "userinfo: %v", err)
	}
	var claims users.Claims
	if err := info.Claims(&claims); err != nil {
		return nil, internalerrors.Wrapf(internalerrors.ErrInvalidUser, "%v", err)
	}
	return users.FromClaims(claims)
}

// SignOut clears the local credentials, emits SIGNED_OUT, then revokes the
// refresh token at the issuer. A revocation failure is returned wrapped in
// ErrSignOutFailed after the local state has already been cleared.
func (p *Provider) SignOut(ctx context.Context) error {
	creds, err := p.tokens.Load(ctx)
	if err != nil && !internalerrors.Is(err, internalerrors.ErrNotFound) {
		log.Warn().Err(err).Msg("failed to read credentials before sign out")
	}
	if err := p.tokens.Delete(ctx); err != nil {
		return internalerrors.Wrapf(internalerrors.ErrSignOutFailed, "delete credentials: %v", err)
	}
	p.Emit(sessions.AuthEvent{Type: sessions.EventSignedOut})

	if creds == nil || p.revocationURL == "" {
		return nil
	}
	if err := p.revoke(ctx, creds); err != nil {
		return internalerrors.Wrapf(internalerrors.ErrSignOutFailed, "revoke: %v", err)
	}
	return nil
}

// QueryActivity reads the user's activity. Without an activity repo every
// user has no activity.
func (p *Provider) QueryActivity(ctx context.Context, userID string) ([]activity.Record, error) {
	if p.activity == nil {
		log.Debug().Msg("no activity repo configured")
		return nil, nil
	}
	return p.activity.ListByUser(ctx, userID)
}
