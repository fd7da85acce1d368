package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
)

type Authorizer interface {
	Authorize(ctx context.Context) (string, error)
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type cognitoAuthorizer struct {
	logger  outbound.LoggerPort
	fetcher ContentFetcher
	conf    *config.AuthorizerConfig

	mu          sync.Mutex
	cachedToken string
	expiresAt   time.Time
}

func NewCognitoAuthorizer(logger outbound.LoggerPort, fetcher ContentFetcher, conf *config.AuthorizerConfig) Authorizer {
	return &cognitoAuthorizer{
		logger:  logger,
		fetcher: fetcher,
		conf:    conf,
	}
}

func (a *cognitoAuthorizer) Authorize(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cachedToken != "" && time.Now().Before(a.expiresAt) {
		return a.cachedToken, nil
	}

	clientCredentials := base64.StdEncoding.EncodeToString([]byte(a.conf.ClientID + ":" + a.conf.ClientSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.conf.TokenEndpoint, strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		a.logger.Error(err, "Failed to create the token request")
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+clientCredentials)

	body, err := a.fetcher.FetchContent(req)
	if err != nil {
		a.logger.Error(err, "Failed to fetch client credentials token")
		return "", err
	}

	var tokenResponse TokenResponse
	err = json.Unmarshal(body, &tokenResponse)
	if err != nil {
		a.logger.Error(err, "Failed to unmarshal the token response")
		return "", err
	}

	a.cachedToken = tokenResponse.AccessToken
	// Renew a minute before expiry.
	a.expiresAt = time.Now().Add(time.Duration(tokenResponse.ExpiresIn)*time.Second - time.Minute)

	return tokenResponse.AccessToken, nil
}
