package stellar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"veridion/internal/evidence/providers"
)

// Horizon refuses larger pages.
const MaxListLimit = 200

// Balance is one asset line of an account.
type Balance struct {
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code,omitempty"`
	AssetIssuer string `json:"asset_issuer,omitempty"`
	Balance     string `json:"balance"`
}

// AccountInfo is the dashboard summary of an account.
type AccountInfo struct {
	AccountID     string    `json:"account_id"`
	Sequence      string    `json:"sequence"`
	SubentryCount int       `json:"subentry_count"`
	Balances      []Balance `json:"balances"`
}

// Transaction is a transaction as listed for an account.
type Transaction struct {
	ID             string    `json:"id"`
	Hash           string    `json:"hash"`
	CreatedAt      time.Time `json:"created_at"`
	FeeCharged     string    `json:"fee_charged"`
	OperationCount int       `json:"operation_count"`
	Memo           string    `json:"memo,omitempty"`
	Successful     bool      `json:"successful"`
	SourceAccount  string    `json:"source_account"`
}

// Operation is an operation as listed for an account. Amount and the
// counterparties are only set for payment-like operations.
type Operation struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	CreatedAt       time.Time `json:"created_at"`
	TransactionHash string    `json:"transaction_hash"`
	SourceAccount   string    `json:"source_account"`
	Amount          string    `json:"amount,omitempty"`
	AssetType       string    `json:"asset_type,omitempty"`
	From            string    `json:"from,omitempty"`
	To              string    `json:"to,omitempty"`
}

// Payment is a payment as listed for an account.
type Payment struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Amount          string    `json:"amount"`
	AssetType       string    `json:"asset_type"`
	AssetCode       string    `json:"asset_code,omitempty"`
	AssetIssuer     string    `json:"asset_issuer,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	TransactionHash string    `json:"transaction_hash"`
}

type accountRecord struct {
	ID            string    `json:"id"`
	Sequence      string    `json:"sequence"`
	SubentryCount int       `json:"subentry_count"`
	Balances      []Balance `json:"balances"`
}

type page[T any] struct {
	Embedded struct {
		Records []T `json:"records"`
	} `json:"_embedded"`
}

// AccountInfo reads the account's sequence and balances. A missing account
// is a providers.ErrorNotFound error.
func (c *Client) AccountInfo(ctx context.Context, accountID string) (*AccountInfo, error) {
	resp, err := c.get(ctx, "/accounts/"+url.PathEscape(accountID), nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, providers.FromStatus(providerID, resp.StatusCode, "")
	}
	var rec accountRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageBytes)).Decode(&rec); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "malformed account", err)
	}
	if rec.Balances == nil {
		rec.Balances = []Balance{}
	}
	return &AccountInfo{
		AccountID:     rec.ID,
		Sequence:      rec.Sequence,
		SubentryCount: rec.SubentryCount,
		Balances:      rec.Balances,
	}, nil
}

// LatestTransactions lists up to limit transactions, newest first.
func (c *Client) LatestTransactions(ctx context.Context, accountID string, limit int) ([]Transaction, error) {
	return list[Transaction](ctx, c, accountID, "transactions", limit)
}

// Operations lists up to limit operations, newest first.
func (c *Client) Operations(ctx context.Context, accountID string, limit int) ([]Operation, error) {
	return list[Operation](ctx, c, accountID, "operations", limit)
}

// Payments lists up to limit payments, newest first.
func (c *Client) Payments(ctx context.Context, accountID string, limit int) ([]Payment, error) {
	return list[Payment](ctx, c, accountID, "payments", limit)
}

func list[T any](ctx context.Context, c *Client, accountID, resource string, limit int) ([]T, error) {
	if limit <= 0 || limit > MaxListLimit {
		return nil, providers.NewProviderError(providers.ErrorInternal, providerID, "limit out of range: "+strconv.Itoa(limit), nil)
	}
	q := url.Values{}
	q.Set("order", "desc")
	q.Set("limit", strconv.Itoa(limit))

	resp, err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/"+resource, q)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, providers.FromStatus(providerID, resp.StatusCode, "")
	}
	var p page[T]
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageBytes)).Decode(&p); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "malformed "+resource+" page", err)
	}
	if p.Embedded.Records == nil {
		return []T{}, nil
	}
	return p.Embedded.Records, nil
}
