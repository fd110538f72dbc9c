package rate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// FallbackDateSentinel marks a reading taken from the secondary provider,
// which carries no effective date.
const FallbackDateSentinel = "API alternativa"

// SourceOptions parameterise an HTTP rate source.
type SourceOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func fetchJSON(ctx context.Context, client *http.Client, rawURL, userAgent string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return json.Unmarshal(payload, out)
}

// Banrep fetches the official TRM from the Banco de la República open-data API.
type Banrep struct {
	opts   SourceOptions
	client *http.Client
	logger zerolog.Logger
}

// NewBanrep constructs the primary TRM source.
func NewBanrep(opts SourceOptions, logger zerolog.Logger) *Banrep {
	if opts.URL == "" {
		opts.URL = "https://www.datos.gov.co/resource/32sa-8pi3.json"
	}
	return &Banrep{
		opts:   opts,
		client: newHTTPClient(opts.Timeout),
		logger: logger.With().Str("component", "rate_banrep").Logger(),
	}
}

// Name identifies the source in logs and errors.
func (b *Banrep) Name() string { return "banrep" }

// Fetch returns the most recent TRM value and its effective date.
func (b *Banrep) Fetch(ctx context.Context) (decimal.Decimal, string, error) {
	query := url.Values{}
	query.Set("$limit", "1")
	query.Set("$order", "vigenciadesde DESC")
	endpoint := b.opts.URL + "?" + query.Encode()

	var rows []struct {
		Valor         string `json:"valor"`
		VigenciaDesde string `json:"vigenciadesde"`
	}
	if err := fetchJSON(ctx, b.client, endpoint, b.opts.UserAgent, &rows); err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("banrep: %w", err)
	}
	if len(rows) == 0 {
		return decimal.Decimal{}, "", errors.New("banrep: empty result set")
	}

	value, err := decimal.NewFromString(rows[0].Valor)
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("banrep: parse valor %q: %w", rows[0].Valor, err)
	}

	effective, _, _ := strings.Cut(rows[0].VigenciaDesde, "T")
	return value, effective, nil
}

// ExchangeRate fetches an approximate COP rate from the exchangerate-api
// USD table. Used as the secondary source when Banrep is unavailable.
type ExchangeRate struct {
	opts   SourceOptions
	client *http.Client
	logger zerolog.Logger
}

// NewExchangeRate constructs the secondary rate source.
func NewExchangeRate(opts SourceOptions, logger zerolog.Logger) *ExchangeRate {
	if opts.URL == "" {
		opts.URL = "https://api.exchangerate-api.com/v4/latest/USD"
	}
	return &ExchangeRate{
		opts:   opts,
		client: newHTTPClient(opts.Timeout),
		logger: logger.With().Str("component", "rate_fallback").Logger(),
	}
}

// Name identifies the source in logs and errors.
func (e *ExchangeRate) Name() string { return "exchangerate-api" }

// Fetch returns the COP entry from the USD rate table.
func (e *ExchangeRate) Fetch(ctx context.Context) (decimal.Decimal, string, error) {
	var payload struct {
		Rates map[string]json.Number `json:"rates"`
	}
	if err := fetchJSON(ctx, e.client, e.opts.URL, e.opts.UserAgent, &payload); err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("exchangerate-api: %w", err)
	}

	cop, ok := payload.Rates["COP"]
	if !ok {
		return decimal.Decimal{}, "", errors.New("exchangerate-api: COP rate missing")
	}

	value, err := decimal.NewFromString(cop.String())
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("exchangerate-api: parse rate %q: %w", cop.String(), err)
	}
	return value, FallbackDateSentinel, nil
}

var (
	_ Source = (*Banrep)(nil)
	_ Source = (*ExchangeRate)(nil)
)
