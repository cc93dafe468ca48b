// Package token persists the provider's OAuth2 credentials between runs and
// turns them into sessions.
package token

import (
	"context"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Repo stores the credentials of the single signed-in principal.
type Repo interface {
	Save(ctx context.Context, creds *Credentials) error
	// Load returns internal errors.ErrNotFound when nothing is stored.
	Load(ctx context.Context) (*Credentials, error)
	Delete(ctx context.Context) error
}

// Credentials is the persisted form of an oauth2.Token. oauth2.Token keeps
// the ID token in an unexported field, so it is lifted out here.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// FromOAuth2 copies t, including its id_token extra if present.
func FromOAuth2(t *oauth2.Token) *Credentials {
	if t == nil {
		return nil
	}
	c := &Credentials{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
	if idToken, ok := t.Extra("id_token").(string); ok {
		c.IDToken = idToken
	}
	return c
}

// OAuth2 converts back for use with an oauth2.Config.
func (c *Credentials) OAuth2() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
	if c.IDToken != "" {
		t = t.WithExtra(map[string]any{"id_token": c.IDToken})
	}
	return t
}

// Expired reports whether the access token has expired at now. Credentials
// without an expiry never expire.
func (c *Credentials) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

// CanRefresh reports whether a refresh token is available.
func (c *Credentials) CanRefresh() bool {
	return strings.TrimSpace(c.RefreshToken) != ""
}
