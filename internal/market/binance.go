package market

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

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const advSearchPath = "/bapi/c2c/v2/friendly/c2c/adv/search"

// ErrNoQuotes is returned when the venue responds without any adverts.
var ErrNoQuotes = errors.New("no quotes available")

var decHundred = decimal.NewFromInt(100)

// BinanceOptions parameterise the Binance P2P fetcher.
type BinanceOptions struct {
	BaseURL   string
	Asset     string
	Fiat      string
	PayTypes  []string
	Timeout   time.Duration
	UserAgent string
}

// Binance fetches adverts from the Binance P2P search endpoint.
type Binance struct {
	opts    BinanceOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewBinance constructs a P2P quote fetcher.
func NewBinance(opts BinanceOptions, logger zerolog.Logger) *Binance {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://p2p.binance.com"
	}

	return &Binance{
		opts:    opts,
		logger:  logger.With().Str("component", "quote_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchQuotes queries one side of the book and returns up to limit quotes.
func (b *Binance) FetchQuotes(ctx context.Context, side Side, limit int) ([]Quote, error) {
	if b.opts.Asset == "" || b.opts.Fiat == "" {
		return nil, errors.New("asset and fiat required")
	}
	if limit <= 0 {
		limit = 10
	}

	reqPayload := advSearchRequest{
		Asset:     b.opts.Asset,
		Fiat:      b.opts.Fiat,
		TradeType: string(side),
		PayTypes:  b.opts.PayTypes,
		Page:      1,
		Rows:      limit,
	}

	body, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, err
	}

	endpoint := b.baseURL + advSearchPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(b.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payloadBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payloadBytes)
	}

	var searchRes advSearchResponse
	if err := json.Unmarshal(payloadBytes, &searchRes); err != nil {
		return nil, err
	}

	if len(searchRes.Data) == 0 {
		return nil, ErrNoQuotes
	}

	quotes := make([]Quote, 0, len(searchRes.Data))
	for _, advert := range searchRes.Data {
		price, err := decimal.NewFromString(advert.Adv.Price)
		if err != nil {
			b.logger.Warn().Err(err).Str("price", advert.Adv.Price).Msg("skipping advert with unparsable price")
			continue
		}
		quotes = append(quotes, Quote{
			Price:              price,
			Seller:             advert.Advertiser.NickName,
			CompletedOrders:    advert.Advertiser.MonthOrderCount,
			SuccessRatePercent: decimal.NewFromFloat(advert.Advertiser.MonthFinishRate).Mul(decHundred),
			MinAmount:          parseAmount(advert.Adv.MinSingleTransAmount),
			MaxAmount:          parseAmount(advert.Adv.MaxSingleTransAmount),
		})
	}

	if len(quotes) == 0 {
		return nil, ErrNoQuotes
	}
	return quotes, nil
}

func parseAmount(raw string) decimal.Decimal {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}

type advSearchRequest struct {
	Asset         string   `json:"asset"`
	Fiat          string   `json:"fiat"`
	TradeType     string   `json:"tradeType"`
	PayTypes      []string `json:"payTypes"`
	Page          int      `json:"page"`
	Rows          int      `json:"rows"`
	PublisherType *string  `json:"publisherType"`
}

type advSearchResponse struct {
	Data []struct {
		Adv struct {
			Price                string `json:"price"`
			MinSingleTransAmount string `json:"minSingleTransAmount"`
			MaxSingleTransAmount string `json:"maxSingleTransAmount"`
		} `json:"adv"`
		Advertiser struct {
			NickName        string  `json:"nickName"`
			MonthOrderCount int     `json:"monthOrderCount"`
			MonthFinishRate float64 `json:"monthFinishRate"`
		} `json:"advertiser"`
	} `json:"data"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("p2p api error (%d): %s", status, apiErr.Message)
	}
	if len(payload) > 0 {
		return fmt.Errorf("p2p api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("p2p api error (%d)", status)
}

var _ QuoteSource = (*Binance)(nil)
