// Package stellar queries a Horizon server for account existence and
// transaction activity.
package stellar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"veridion/internal/evidence/providers"
	"veridion/pkg/platform/circuit"
)

const (
	providerID = "horizon"

	// Public Horizon endpoints.
	TestnetURL = "https://horizon-testnet.stellar.org"
	MainnetURL = "https://horizon.stellar.org"

	defaultPageSize = 200
	defaultMaxCount = 1000
	maxPageBytes    = 4 << 20
)

type transactionPage struct {
	Embedded struct {
		Records []struct {
			ID          string `json:"id"`
			PagingToken string `json:"paging_token"`
		} `json:"records"`
	} `json:"_embedded"`
}

// Client is a Horizon adapter guarded by a circuit breaker. Transaction
// counting stops at MaxCount, which is already past the top scoring tier.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuit.Breaker
	logger     *slog.Logger
	pageSize   int
	maxCount   int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBreaker installs a circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) { cl.breaker = b }
}

// WithLogger sets the logger for breaker transitions.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithPaging overrides the page size and the counting cap.
func WithPaging(pageSize, maxCount int) Option {
	return func(cl *Client) {
		if pageSize > 0 {
			cl.pageSize = pageSize
		}
		if maxCount > 0 {
			cl.maxCount = maxCount
		}
	}
}

// New creates a client for the Horizon server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
		pageSize:   defaultPageSize,
		maxCount:   defaultMaxCount,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccountExists reports whether Horizon knows the account.
func (c *Client) AccountExists(ctx context.Context, accountID string) (bool, error) {
	resp, err := c.get(ctx, "/accounts/"+url.PathEscape(accountID), nil)
	if err != nil {
		return false, err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, providers.FromStatus(providerID, resp.StatusCode, "")
	}
}

// TransactionCount pages through the account's transactions, newest first,
// and returns how many it saw, capped at the configured maximum.
func (c *Client) TransactionCount(ctx context.Context, accountID string) (int, error) {
	count := 0
	cursor := ""
	for count < c.maxCount {
		q := url.Values{}
		q.Set("order", "desc")
		q.Set("limit", strconv.Itoa(c.pageSize))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		page, err := c.transactionPage(ctx, accountID, q)
		if err != nil {
			return 0, err
		}
		records := page.Embedded.Records
		count += len(records)
		if len(records) < c.pageSize {
			break
		}
		next := records[len(records)-1].PagingToken
		if next == "" || next == cursor {
			return 0, providers.NewProviderError(providers.ErrorBadData, providerID, "transaction page without paging token", nil)
		}
		cursor = next
	}
	return min(count, c.maxCount), nil
}

func (c *Client) transactionPage(ctx context.Context, accountID string, q url.Values) (*transactionPage, error) {
	resp, err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/transactions", q)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, providers.FromStatus(providerID, resp.StatusCode, "")
	}
	var page transactionPage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageBytes)).Decode(&page); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "malformed transaction page", err)
	}
	return &page, nil
}

// get performs one request through the breaker. Transport failures and 5xx
// responses count against the breaker; 404 and other client errors do not.
func (c *Client) get(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, providerID, "circuit open", nil)
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, providerID, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		return nil, providers.FromTransport(providerID, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		c.recordFailure(ctx)
	} else {
		c.recordSuccess(ctx)
	}
	return resp, nil
}

func (c *Client) recordFailure(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "horizon circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "horizon circuit closed", "breaker", c.breaker.Name())
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
	_ = resp.Body.Close()
}

// String identifies the client in logs.
func (c *Client) String() string {
	return fmt.Sprintf("horizon(%s)", c.baseURL)
}
