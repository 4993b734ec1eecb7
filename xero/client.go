package xero

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config carries the credentials stored in the ledger connection row.
type Config struct {
	TenantId     string
	ClientId     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time

	// OnTokenRefresh persists a rotated token triple. Optional; a nil
	// callback means rotation is kept in memory only.
	OnTokenRefresh func(accessToken string, refreshToken string, expiresAt time.Time) error
}

type Client struct {
	baseURL     string
	identityURL string
	tenantId    string
	http        *http.Client
	limiter     <-chan time.Time

	mu           sync.Mutex
	clientId     string
	clientSecret string
	accessToken  string
	refreshToken string
	tokenExpiry  time.Time
	onRefresh    func(string, string, time.Time) error
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.TenantId) == "" {
		return nil, errors.New("xero tenant id is empty")
	}
	if strings.TrimSpace(cfg.AccessToken) == "" && strings.TrimSpace(cfg.RefreshToken) == "" {
		return nil, errors.New("xero credentials are empty")
	}

	baseURL := strings.TrimSpace(os.Getenv("XERO_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.xero.com/api.xro/2.0"
	}
	identityURL := strings.TrimSpace(os.Getenv("XERO_IDENTITY_URL"))
	if identityURL == "" {
		identityURL = "https://identity.xero.com/connect/token"
	}
	rateLimitPerMin := int64(60)
	if v := strings.TrimSpace(os.Getenv("XERO_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		identityURL:  identityURL,
		tenantId:     cfg.TenantId,
		http:         &http.Client{Timeout: 30 * time.Second},
		limiter:      time.Tick(interval),
		clientId:     cfg.ClientId,
		clientSecret: cfg.ClientSecret,
		accessToken:  cfg.AccessToken,
		refreshToken: cfg.RefreshToken,
		tokenExpiry:  cfg.TokenExpiry,
		onRefresh:    cfg.OnTokenRefresh,
	}, nil
}

// ensureToken refreshes the access token when it is missing or about to
// expire. The registry invalidates the previous refresh token on rotation,
// so the rotated triple is persisted immediately via the callback.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && (c.tokenExpiry.IsZero() || time.Until(c.tokenExpiry) > time.Minute) {
		return c.accessToken, nil
	}
	if c.refreshToken == "" {
		return "", errors.New("xero access token expired and no refresh token available")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.identityURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientId, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("xero token refresh error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", errors.New("xero token refresh returned no access token")
	}

	c.accessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		c.refreshToken = tok.RefreshToken
	}
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)

	if c.onRefresh != nil {
		if err := c.onRefresh(c.accessToken, c.refreshToken, c.tokenExpiry); err != nil {
			return "", fmt.Errorf("persist rotated xero token: %w", err)
		}
	}
	return c.accessToken, nil
}

func (c *Client) do(ctx context.Context, method string, path string, params url.Values, payload any) ([]byte, error) {
	<-c.limiter

	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Xero-Tenant-Id", c.tenantId)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("xero api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// SearchContacts runs a where-filter query against the contact registry.
// Filters are simple equality predicates, e.g. `EmailAddress=="a@b.c"`.
func (c *Client) SearchContacts(ctx context.Context, where string) ([]Contact, error) {
	params := url.Values{}
	if strings.TrimSpace(where) != "" {
		params.Set("where", where)
	}
	body, err := c.do(ctx, http.MethodGet, "/Contacts", params, nil)
	if err != nil {
		return nil, err
	}
	var parsed contactsEnvelope
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return parsed.Contacts, nil
}

// CreateContacts submits new contacts as a batch. This service always
// submits exactly one.
func (c *Client) CreateContacts(ctx context.Context, contacts []Contact) ([]Contact, error) {
	body, err := c.do(ctx, http.MethodPut, "/Contacts", nil, contactsEnvelope{Contacts: contacts})
	if err != nil {
		return nil, err
	}
	var parsed contactsEnvelope
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return parsed.Contacts, nil
}

// UpdateContacts updates existing contacts; each payload embeds its
// ContactID.
func (c *Client) UpdateContacts(ctx context.Context, contacts []Contact) ([]Contact, error) {
	body, err := c.do(ctx, http.MethodPost, "/Contacts", nil, contactsEnvelope{Contacts: contacts})
	if err != nil {
		return nil, err
	}
	var parsed contactsEnvelope
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return parsed.Contacts, nil
}

// Organisation fetches the connected organisation's info. Used only by the
// connectivity health check.
func (c *Client) Organisation(ctx context.Context) (*Organisation, error) {
	body, err := c.do(ctx, http.MethodGet, "/Organisation", nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed organisationsEnvelope
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Organisations) == 0 {
		return nil, errors.New("xero returned no organisation")
	}
	return &parsed.Organisations[0], nil
}

// EqualsFilter builds the registry's equality predicate for a field, with
// embedded quotes escaped.
func EqualsFilter(field string, value string) string {
	escaped := strings.ReplaceAll(value, `"`, `\"`)
	return fmt.Sprintf(`%s=="%s"`, field, escaped)
}
