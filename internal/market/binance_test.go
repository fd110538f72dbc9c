package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testOptions(baseURL string) BinanceOptions {
	return BinanceOptions{
		BaseURL:   baseURL,
		Asset:     "USDT",
		Fiat:      "COP",
		PayTypes:  []string{"Bancolombia"},
		Timeout:   time.Second,
		UserAgent: "test",
	}
}

func TestFetchQuotesMissingConfig(t *testing.T) {
	b := NewBinance(BinanceOptions{}, noopLogger())
	if _, err := b.FetchQuotes(context.Background(), SideBuy, 10); err == nil {
		t.Fatal("missing asset/fiat should error")
	}
}

func TestFetchQuotesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "bad request"})
	}))
	defer srv.Close()

	b := NewBinance(testOptions(srv.URL), noopLogger())
	if _, err := b.FetchQuotes(context.Background(), SideBuy, 10); err == nil {
		t.Fatal("HTTP 400 should error")
	}
}

func TestFetchQuotesEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	b := NewBinance(testOptions(srv.URL), noopLogger())
	if _, err := b.FetchQuotes(context.Background(), SideBuy, 10); !errors.Is(err, ErrNoQuotes) {
		t.Fatalf("empty result should yield ErrNoQuotes, got %v", err)
	}
}

func TestFetchQuotesSuccess(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"adv": map[string]any{
						"price":                "3950.50",
						"minSingleTransAmount": "50000",
						"maxSingleTransAmount": "2000000",
					},
					"advertiser": map[string]any{
						"nickName":        "vendedor1",
						"monthOrderCount": 321,
						"monthFinishRate": 0.987,
					},
				},
			},
		})
	}))
	defer srv.Close()

	b := NewBinance(testOptions(srv.URL), noopLogger())
	quotes, err := b.FetchQuotes(context.Background(), SideBuy, 10)
	if err != nil {
		t.Fatalf("successful response should not error: %v", err)
	}

	if gotPayload["tradeType"] != "BUY" {
		t.Fatalf("tradeType = %v, want BUY", gotPayload["tradeType"])
	}
	if gotPayload["asset"] != "USDT" || gotPayload["fiat"] != "COP" {
		t.Fatalf("unexpected asset/fiat in request: %v", gotPayload)
	}

	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
	q := quotes[0]
	if !q.Price.Equal(dec("3950.50")) {
		t.Fatalf("price = %s, want 3950.50", q.Price)
	}
	if q.Seller != "vendedor1" || q.CompletedOrders != 321 {
		t.Fatalf("unexpected advertiser fields: %+v", q)
	}
	if !q.SuccessRatePercent.Equal(dec("98.7")) {
		t.Fatalf("success rate = %s, want 98.7", q.SuccessRatePercent)
	}
	if !q.MinAmount.Equal(dec("50000")) || !q.MaxAmount.Equal(dec("2000000")) {
		t.Fatalf("unexpected amounts: %+v", q)
	}
}

func TestFetchQuotesSkipsUnparsablePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"adv": map[string]any{"price": "not-a-number"}, "advertiser": map[string]any{"nickName": "x"}},
				{"adv": map[string]any{"price": "4000"}, "advertiser": map[string]any{"nickName": "y"}},
			},
		})
	}))
	defer srv.Close()

	b := NewBinance(testOptions(srv.URL), noopLogger())
	quotes, err := b.FetchQuotes(context.Background(), SideBuy, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 1 || quotes[0].Seller != "y" {
		t.Fatalf("expected only the parsable advert, got %+v", quotes)
	}
}
