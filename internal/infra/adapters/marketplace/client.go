package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/metrics"
)

var _ adapter.Marketplace = (*Client)(nil)

// Client implements the Marketplace port over the platform's REST API using
// direct HTTP calls.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates the API client. baseURL is the scheme+host prefix
// without a trailing slash, e.g. "https://netwbx.ru".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// LookupUser fetches the seller record; a 404 maps to domain.ErrNotFound.
func (c *Client) LookupUser(ctx context.Context, telegramID int64) (*model.SellerInfo, error) {
	start := time.Now()
	info, err := c.lookupUser(ctx, telegramID)
	metrics.ObserveGatewayCall("marketplace", "lookup_user", start, ignoreNotFound(err))
	return info, err
}

func (c *Client) lookupUser(ctx context.Context, telegramID int64) (*model.SellerInfo, error) {
	url := fmt.Sprintf("%s/api/user/%d/", c.baseURL, telegramID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var info model.SellerInfo
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return nil, fmt.Errorf("decode user response: %w", err)
		}
		return &info, nil
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	default:
		return nil, fmt.Errorf("lookup user: unexpected status %d", resp.StatusCode)
	}
}

// Categories fetches the full flat category tree.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	start := time.Now()
	cats, err := c.categories(ctx)
	metrics.ObserveGatewayCall("marketplace", "categories", start, err)
	return cats, err
}

func (c *Client) categories(ctx context.Context) ([]model.Category, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/category", nil)
	if err != nil {
		return nil, fmt.Errorf("build category request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch categories: unexpected status %d", resp.StatusCode)
	}
	var cats []model.Category
	if err := json.NewDecoder(resp.Body).Decode(&cats); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return cats, nil
}

// SubmitLot publishes a finished listing. The API answers 201 on success.
func (c *Client) SubmitLot(ctx context.Context, lot *model.Lot) error {
	start := time.Now()
	err := c.put(ctx, "/api/create-lot/", lot)
	metrics.ObserveGatewayCall("marketplace", "submit_lot", start, err)
	return err
}

// SubmitSellerProfile registers a seller. The API answers 201 on success.
func (c *Client) SubmitSellerProfile(ctx context.Context, profile *model.SellerProfile) error {
	start := time.Now()
	err := c.put(ctx, "/api/create-user/", profile)
	metrics.ObserveGatewayCall("marketplace", "submit_profile", start, err)
	return err
}

func (c *Client) put(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		// Drain a little of the body for the error message; the API returns
		// a short problem description.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("submit to %s: status %d: %s", path, resp.StatusCode, string(snippet))
	}
	return nil
}

// ignoreNotFound keeps ErrNotFound out of the gateway error metric: an
// unregistered user is a normal outcome, not a failure.
func ignoreNotFound(err error) error {
	if err == domain.ErrNotFound {
		return nil
	}
	return err
}
