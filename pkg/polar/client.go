package polar

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scanlyhq/scanly-backend/pkg/config"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	sandboxBaseURL    = "https://sandbox-api.polar.sh"
	productionBaseURL = "https://api.polar.sh"
)

var (
	errAccessTokenRequired = errors.New("polar access token is required")
	errProductIDRequired   = errors.New("polar product id is required")
	errSecretRequired      = errors.New("polar webhook secret is required")
	errInvalidPolarEnv     = fmt.Errorf("polar environment must be %q or %q", sandboxEnv, productionEnv)
)

// Client wraps the Polar REST API plus env-specific metadata.
type Client struct {
	http          *http.Client
	baseURL       string
	environment   string
	accessToken   string
	productID     string
	successURL    string
	webhookSecret string
}

// NewClient validates the configured credentials and picks the API host.
func NewClient(ctx context.Context, cfg config.PolarConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}
	productID := strings.TrimSpace(cfg.ProductID)
	if productID == "" {
		return nil, errProductIDRequired
	}
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return nil, errSecretRequired
	}

	baseURL := sandboxBaseURL
	if env == productionEnv {
		baseURL = productionBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("polar client initialized (%s)", env))
	}

	return &Client{
		http:          &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		environment:   env,
		accessToken:   token,
		productID:     productID,
		successURL:    cfg.SuccessURL,
		webhookSecret: secret,
	}, nil
}

// Environment reports the normalized Polar environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// WebhookSecret returns the signing secret in the base64 form the
// standard-webhooks verifier expects.
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(c.webhookSecret))
}

type checkoutRequest struct {
	Products           []string          `json:"products"`
	ExternalCustomerID string            `json:"external_customer_id,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	SuccessURL         string            `json:"success_url,omitempty"`
}

type checkoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession opens a hosted checkout for the configured product
// tied to the given user and returns the session URL. The userId placed in
// metadata is what the webhook handler later reads back.
func (c *Client) CreateCheckoutSession(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required")
	}

	body := checkoutRequest{
		Products:           []string{c.productID},
		ExternalCustomerID: userID,
		Metadata:           map[string]string{"userId": userID},
		SuccessURL:         c.successURL,
	}

	var resp checkoutResponse
	if err := c.do(ctx, http.MethodPost, "/v1/checkouts/", body, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", errors.New("checkout session missing url")
	}
	return resp.URL, nil
}

type subscriptionUpdateRequest struct {
	CancelAtPeriodEnd bool `json:"cancel_at_period_end"`
}

// CancelSubscription flags the subscription for cancellation at period end;
// access survives until the provider reports a terminal status.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if strings.TrimSpace(subscriptionID) == "" {
		return errors.New("subscription id is required")
	}
	path := "/v1/subscriptions/" + subscriptionID
	return c.do(ctx, http.MethodPatch, path, subscriptionUpdateRequest{CancelAtPeriodEnd: true}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("polar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("polar %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidPolarEnv
	}
}
