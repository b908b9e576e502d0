// Package oauth implements the token-exchange contract with external OAuth
// providers over plain HTTP.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kana-labs/kana-auth/core"
	"github.com/kana-labs/kana-auth/ports"
)

const (
	googleAuthEndpoint     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenEndpoint    = "https://oauth2.googleapis.com/token"
	googleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleConfig carries the provider credentials. Empty client id means the
// provider is unconfigured and every flow fails with ErrNotConfigured.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// GoogleExchanger implements the OAuthExchanger interface against Google's
// OAuth 2.0 endpoints.
type GoogleExchanger struct {
	cfg        GoogleConfig
	httpClient *http.Client
}

// NewGoogleExchanger creates a new Google exchanger.
func NewGoogleExchanger(cfg GoogleConfig) ports.OAuthExchanger {
	return &GoogleExchanger{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether provider credentials are present.
func (g *GoogleExchanger) Configured() bool {
	return g.cfg.ClientID != ""
}

// AuthURL builds the provider authorization URL for the given state.
func (g *GoogleExchanger) AuthURL(state string) (string, error) {
	if !g.Configured() {
		return "", core.ErrNotConfigured
	}

	params := url.Values{}
	params.Set("client_id", g.cfg.ClientID)
	params.Set("redirect_uri", g.cfg.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")
	params.Set("access_type", "offline")
	if state != "" {
		params.Set("state", state)
	}

	return googleAuthEndpoint + "?" + params.Encode(), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	IDToken     string `json:"id_token"`
}

type userInfoResponse struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange trades an authorization code for the provider-verified identity
// of the user.
func (g *GoogleExchanger) Exchange(ctx context.Context, code, redirectURI string) (*ports.OAuthIdentity, error) {
	if !g.Configured() {
		return nil, core.ErrNotConfigured
	}
	if redirectURI == "" {
		redirectURI = g.cfg.RedirectURI
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", g.cfg.ClientID)
	form.Set("client_secret", g.cfg.ClientSecret)
	form.Set("redirect_uri", redirectURI)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleTokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange returned status %d: %w", resp.StatusCode, core.ErrUnauthorized)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("empty access token: %w", core.ErrUnauthorized)
	}

	return g.fetchUserInfo(ctx, token.AccessToken)
}

func (g *GoogleExchanger) fetchUserInfo(ctx context.Context, accessToken string) (*ports.OAuthIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d: %w", resp.StatusCode, core.ErrUnauthorized)
	}

	var info userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("userinfo without email: %w", core.ErrUnauthorized)
	}

	return &ports.OAuthIdentity{
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}
