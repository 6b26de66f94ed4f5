package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// maxUserInfoBody bounds the userinfo response size read into memory.
const maxUserInfoBody = 1 << 20

// SocialProvider is a Provider backed by a standard OAuth2 endpoint pair
// plus a userinfo URL.
type SocialProvider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	parse       func([]byte) (*UserInfo, error)
}

var _ Provider = (*SocialProvider)(nil)

// NewGoogle creates a Google social login provider.
func NewGoogle(clientID, clientSecret, redirectURL string) *SocialProvider {
	return &SocialProvider{
		name: "google",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		parse:       parseGoogleUser,
	}
}

// NewGitHub creates a GitHub social login provider.
func NewGitHub(clientID, clientSecret, redirectURL string) *SocialProvider {
	return &SocialProvider{
		name: "github",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		userInfoURL: "https://api.github.com/user",
		parse:       parseGitHubUser,
	}
}

// NewMicrosoft creates a Microsoft social login provider against the common
// (multi-tenant) endpoint.
func NewMicrosoft(clientID, clientSecret, redirectURL string) *SocialProvider {
	return &SocialProvider{
		name: "microsoft",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     microsoft.AzureADEndpoint("common"),
			Scopes:       []string{"openid", "email", "profile", "User.Read"},
		},
		userInfoURL: "https://graph.microsoft.com/v1.0/me",
		parse:       parseMicrosoftUser,
	}
}

// Name implements Provider.
func (p *SocialProvider) Name() string { return p.name }

// AuthorizationURL implements Provider.
func (p *SocialProvider) AuthorizationURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange implements Provider.
func (p *SocialProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code with %s: %w", p.name, err)
	}
	return token, nil
}

// FetchUserInfo implements Provider. The request uses the token-bearing
// client from the oauth2 package, which refreshes transparently.
func (p *SocialProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	client := p.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo from %s: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request to %s returned status %d", p.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}
	return p.parse(body)
}

func parseGoogleUser(body []byte) (*UserInfo, error) {
	var u struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("failed to parse google userinfo: %w", err)
	}
	return &UserInfo{ID: u.Sub, Email: u.Email, Name: u.Name}, nil
}

func parseGitHubUser(body []byte) (*UserInfo, error) {
	var u struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("failed to parse github userinfo: %w", err)
	}
	name := u.Name
	if name == "" {
		name = u.Login
	}
	return &UserInfo{ID: strconv.FormatInt(u.ID, 10), Email: u.Email, Name: name}, nil
}

func parseMicrosoftUser(body []byte) (*UserInfo, error) {
	var u struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("failed to parse microsoft userinfo: %w", err)
	}
	email := u.Mail
	if email == "" {
		email = u.UserPrincipalName
	}
	return &UserInfo{ID: u.ID, Email: email, Name: u.DisplayName}, nil
}
