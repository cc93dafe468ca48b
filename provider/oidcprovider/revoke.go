package oidcprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/postureiq-client/token"
)

// revoke posts an RFC 7009 revocation for the refresh token, or the access
// token when there is none.
func (p *Provider) revoke(ctx context.Context, creds *token.Credentials) error {
	form := url.Values{}
	if creds.CanRefresh() {
		form.Set("token", creds.RefreshToken)
		form.Set("token_type_hint", "refresh_token")
	} else {
		form.Set("token", creds.AccessToken)
		form.Set("token_type_hint", "access_token")
	}
	form.Set("client_id", p.oauth2Config.ClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if p.oauth2Config.ClientSecret != "" {
		req.SetBasicAuth(url.QueryEscape(p.oauth2Config.ClientID), url.QueryEscape(p.oauth2Config.ClientSecret))
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revocation endpoint returned %s", resp.Status)
	}
	return nil
}
