package authprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tenantfox/tenantfox/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.clerk.com"

// Session is the resolved authentication state for a request. OrgID is empty
// when the user has not yet created or selected an organization.
type Session struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

// OrganizationMetadata is the public metadata mirror the webhook reconciler
// writes and the subscription oracle reads. The typed struct is the schema
// boundary: payloads that do not decode into it are treated as read failures.
type OrganizationMetadata struct {
	SubscriptionActive bool   `json:"subscriptionActive"`
	SubscriptionStatus string `json:"subscriptionStatus"`
}

// Organization is the provider-side tenant record.
type Organization struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	BillingEmail   string               `json:"billing_email"`
	PublicMetadata OrganizationMetadata `json:"public_metadata"`
}

// Client talks to the hosted auth provider's backend API.
type Client struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a Client from AUTH_PROVIDER_* environment variables.
func NewClientFromEnv() *Client {
	return &Client{
		SecretKey:  strings.TrimSpace(env.GetEnv("AUTH_PROVIDER_SECRET_KEY", "")),
		APIBaseURL: strings.TrimRight(strings.TrimSpace(env.GetEnv("AUTH_PROVIDER_API_URL", defaultAPIBaseURL)), "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// VerifySession resolves a session token into the caller's user and
// organization IDs. An invalid or expired token yields an error.
func (c *Client) VerifySession(ctx context.Context, sessionToken string) (*Session, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return nil, errors.New("session token is required")
	}

	payload, err := json.Marshal(map[string]string{"token": sessionToken})
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/sessions/verify", payload)
	if err != nil {
		return nil, err
	}

	var out Session
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("authprovider: decode session: %w", err)
	}
	if out.UserID == "" {
		return nil, errors.New("authprovider: session has no user id")
	}
	return &out, nil
}

// GetOrganization fetches the provider-side organization record including its
// public metadata.
func (c *Client) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, errors.New("organization id is required")
	}

	body, err := c.do(ctx, http.MethodGet, "/v1/organizations/"+orgID, nil)
	if err != nil {
		return nil, err
	}

	var out Organization
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("authprovider: decode organization: %w", err)
	}
	if out.ID == "" {
		out.ID = orgID
	}
	return &out, nil
}

// UpdateOrganizationMetadata merges the given public metadata into the
// provider-side organization record.
func (c *Client) UpdateOrganizationMetadata(ctx context.Context, orgID string, meta OrganizationMetadata) error {
	if strings.TrimSpace(orgID) == "" {
		return errors.New("organization id is required")
	}

	payload, err := json.Marshal(map[string]OrganizationMetadata{"public_metadata": meta})
	if err != nil {
		return err
	}

	_, err = c.do(ctx, http.MethodPatch, "/v1/organizations/"+orgID+"/metadata", payload)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("AUTH_PROVIDER_SECRET_KEY is not configured")
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("authprovider: %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}
