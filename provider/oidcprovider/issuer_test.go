package oidcprovider_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "postureiq-web"
	testKeyID    = "test-key"
)

// fakeIssuer is a minimal OpenID Connect issuer: discovery, JWKS, token,
// userinfo and revocation endpoints.
type fakeIssuer struct {
	t      *testing.T
	server *httptest.Server
	key    *rsa.PrivateKey

	mu           sync.Mutex
	challenge    string
	nonce        string
	revoked      []string
	revokeStatus int
	refreshCalls int
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeIssuer{t: t, key: key, revokeStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", f.discovery)
	mux.HandleFunc("/keys", f.keys)
	mux.HandleFunc("/token", f.token)
	mux.HandleFunc("/userinfo", f.userinfo)
	mux.HandleFunc("/revoke", f.revoke)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeIssuer) URL() string {
	return f.server.URL
}

// expect records the PKCE challenge and nonce a login URL carries.
func (f *fakeIssuer) expect(challenge, nonce string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.challenge, f.nonce = challenge, nonce
}

func (f *fakeIssuer) failRevocation(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeStatus = status
}

func (f *fakeIssuer) refreshes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

func (f *fakeIssuer) revokedTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.revoked...)
}

func (f *fakeIssuer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(f.t, json.NewEncoder(w).Encode(v))
}

func (f *fakeIssuer) discovery(w http.ResponseWriter, _ *http.Request) {
	f.writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                f.URL(),
		"authorization_endpoint":                f.URL() + "/authorize",
		"token_endpoint":                        f.URL() + "/token",
		"jwks_uri":                              f.URL() + "/keys",
		"userinfo_endpoint":                     f.URL() + "/userinfo",
		"revocation_endpoint":                   f.URL() + "/revoke",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (f *fakeIssuer) keys(w http.ResponseWriter, _ *http.Request) {
	pub := f.key.PublicKey
	f.writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": testKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (f *fakeIssuer) sign(claims jwtlib.MapClaims) string {
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
	tok.Header["kid"] = testKeyID
	raw, err := tok.SignedString(f.key)
	require.NoError(f.t, err)
	return raw
}

func (f *fakeIssuer) idToken(nonce string) string {
	now := time.Now()
	claims := jwtlib.MapClaims{
		"iss":   f.URL(),
		"aud":   testClientID,
		"sub":   "user-1",
		"email": "jane@x.com",
		"sid":   "session-1",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	return f.sign(claims)
}

func (f *fakeIssuer) accessToken(suffix string) string {
	return f.sign(jwtlib.MapClaims{"sub": "user-1", "jti": "access-" + suffix, "exp": time.Now().Add(time.Hour).Unix()})
}

func (f *fakeIssuer) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
		if r.PostForm.Get("code") != "good-code" || base64.RawURLEncoding.EncodeToString(sum[:]) != f.challenge {
			f.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  f.accessToken("1"),
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-1",
			"id_token":      f.idToken(f.nonce),
		})
	case "refresh_token":
		f.refreshCalls++
		if r.PostForm.Get("refresh_token") != "refresh-1" {
			f.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{
			"access_token": f.accessToken("2"),
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     f.idToken(""),
		})
	default:
		f.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (f *fakeIssuer) userinfo(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.writeJSON(w, http.StatusOK, map[string]any{
		"sub":           "user-1",
		"email":         "jane@x.com",
		"user_metadata": map[string]any{"full_name": "Jane Doe"},
		"created_at":    "2025-01-02T03:04:05Z",
	})
}

func (f *fakeIssuer) revoke(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, r.PostForm.Get("token"))
	w.WriteHeader(f.revokeStatus)
}
