// Package provider implements the read-only client against the external
// identity provider's user API.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
)

const defaultHTTPTimeout = 10 * time.Second

// Client fetches identity profiles from the provider's REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// NewClient creates a provider client. baseURL is the API root (no trailing
// slash needed); secretKey is sent as a bearer token.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		secretKey:  strings.TrimSpace(secretKey),
	}
}

// userResponse matches the provider's GET /users/{id} response.
type userResponse struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Username       string `json:"username"`
	ImageURL       string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// GetByID fetches the current profile for one identity. Unknown IDs map to
// domain.ErrIdentityNotFound so the reconciler can record them per item.
func (c *Client) GetByID(ctx context.Context, externalID string) (*domain.IdentityProfile, error) {
	endpoint := c.baseURL + "/users/" + url.PathEscape(externalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider fetch %s: %w", externalID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("provider fetch %s: %w", externalID, domain.ErrIdentityNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("provider fetch %s: status %d", externalID, resp.StatusCode)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("provider fetch %s: decode: %w", externalID, err)
	}

	profile := &domain.IdentityProfile{
		ExternalID: body.ID,
		FirstName:  body.FirstName,
		LastName:   body.LastName,
		Username:   body.Username,
		ImageURL:   body.ImageURL,
	}
	if len(body.EmailAddresses) > 0 {
		profile.Email = body.EmailAddresses[0].EmailAddress
	}
	if profile.ExternalID == "" {
		profile.ExternalID = externalID
	}
	return profile, nil
}

var _ ports.IdentityProvider = (*Client)(nil)
