package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// journalEntry is posted to the suite's accounting service for a completed
// sale: revenue and tax liability credits against the POS clearing account.
type journalEntry struct {
	Journal     string        `json:"journal"`
	Reference   string        `json:"reference"`
	Description string        `json:"description"`
	Lines       []journalLine `json:"lines"`
}

type journalLine struct {
	Account string          `json:"account"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
}

// Clearing, revenue and tax accounts are fixed for POS postings; the
// accounting service maps them to the tenant's chart of accounts.
const (
	accountPOSClearing = "pos_clearing"
	accountSalesRev    = "sales_revenue"
	accountTaxPayable  = "tax_payable"
)

// LedgerClient posts completed sales to the accounting service over HTTP.
// Calls run through a circuit breaker so an accounting outage cannot stall
// the registers; the engine treats posting as best-effort anyway.
type LedgerClient struct {
	baseURL    string
	journal    string
	httpClient *http.Client
	breaker    *CircuitBreaker
}

func NewLedgerClient(baseURL, journal string) *LedgerClient {
	return &LedgerClient{
		baseURL:    baseURL,
		journal:    journal,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    NewCircuitBreaker(DefaultCBConfig()),
	}
}

// BreakerState exposes the circuit state for health endpoints.
func (c *LedgerClient) BreakerState() string { return c.breaker.State().String() }

// PostSaleToGL books total and tax for one completed transaction.
func (c *LedgerClient) PostSaleToGL(ctx context.Context, transactionID uuid.UUID, totalAmount, taxAmount decimal.Decimal) error {
	entry := journalEntry{
		Journal:     c.journal,
		Reference:   transactionID.String(),
		Description: "POS sale",
		Lines: []journalLine{
			{Account: accountPOSClearing, Debit: totalAmount},
			{Account: accountSalesRev, Credit: totalAmount.Sub(taxAmount)},
			{Account: accountTaxPayable, Credit: taxAmount},
		},
	}

	return c.breaker.Execute(func() error {
		body, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("ledger: marshal entry: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/journal-entries", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("ledger: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("ledger: service unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("ledger: service returned %d", resp.StatusCode)
		}
		return nil
	})
}
