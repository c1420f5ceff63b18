package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Legalistas/brixar-sub002/internal/config"
)

// IQuoteClient fetches exchange-rate quotes from dolarapi-style endpoints.
type IQuoteClient interface {
	BlueDollar(ctx context.Context) (*Quote, error)
	Fetch(ctx context.Context, url string) (*Quote, error)
}

// Quote is the body returned by the quote endpoints.
type Quote struct {
	Moneda             string          `json:"moneda"`
	Casa               string          `json:"casa"`
	Nombre             string          `json:"nombre"`
	Compra             decimal.Decimal `json:"compra"`
	Venta              decimal.Decimal `json:"venta"`
	FechaActualizacion time.Time       `json:"fechaActualizacion"`
}

type quoteClient struct {
	blueDollarURL string
	httpClient    *http.Client
}

func NewQuoteClient(cfg *config.Config) IQuoteClient {
	timeout := cfg.FxHTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &quoteClient{
		blueDollarURL: cfg.FxBlueDollarURL,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// BlueDollar returns the informal USD quote in pesos.
func (c *quoteClient) BlueDollar(ctx context.Context) (*Quote, error) {
	return c.Fetch(ctx, c.blueDollarURL)
}

// Fetch reads one quote. The sell price (venta) must be positive.
func (c *quoteClient) Fetch(ctx context.Context, url string) (*Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to contact quote service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote service returned status %d", resp.StatusCode)
	}

	var quote Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}
	if !quote.Venta.IsPositive() {
		return nil, fmt.Errorf("quote response has no sell price")
	}
	return &quote, nil
}
