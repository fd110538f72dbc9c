package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/distrobmj-cmd/julianarbitraje/internal/engine"
	"github.com/distrobmj-cmd/julianarbitraje/internal/market"
	"github.com/distrobmj-cmd/julianarbitraje/internal/rate"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestFormatCOP(t *testing.T) {
	cases := []struct {
		in     string
		places int32
		want   string
	}{
		{"4000.714", 2, "4,000.71"},
		{"4000.714", 0, "4,001"},
		{"123", 0, "123"},
		{"1234567.5", 2, "1,234,567.50"},
		{"-4000.71", 2, "-4,000.71"},
		{"0", 0, "0"},
	}
	for _, tc := range cases {
		if got := formatCOP(dec(tc.in), tc.places); got != tc.want {
			t.Errorf("formatCOP(%s, %d) = %q, want %q", tc.in, tc.places, got, tc.want)
		}
	}
}

func TestFormatSignedPct(t *testing.T) {
	if got := formatSignedPct(dec("2.5")); got != "+2.50" {
		t.Errorf("positive = %q, want +2.50", got)
	}
	if got := formatSignedPct(dec("-1.234")); got != "-1.23" {
		t.Errorf("negative = %q, want -1.23", got)
	}
	if got := formatSignedPct(dec("0")); got != "+0.00" {
		t.Errorf("zero = %q, want +0.00", got)
	}
}

func testReading() rate.Reading {
	return rate.Reading{Value: dec("4000"), EffectiveDate: "2026-08-29"}
}

func TestRateSummary(t *testing.T) {
	msg := RateSummary(testReading(), dec("3920"), dec("0.02"), time.Hour, 30*time.Minute)

	for _, want := range []string{
		"ACTUALIZACIÓN TRM",
		"4,000.00 COP",
		"2026-08-29",
		"(-2%)",
		"3,920 COP",
		"60 minutos",
		"30 minutos",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("summary missing %q:\n%s", want, msg)
		}
	}
}

func TestInstantAlert(t *testing.T) {
	best := engine.RankedQuote{
		Quote: market.Quote{
			Price:              dec("3900"),
			Seller:             "vendedor1",
			CompletedOrders:    250,
			SuccessRatePercent: dec("98.7"),
		},
		DistanceToThreshold: dec("20"),
		DiscountPercent:     dec("2.5"),
	}
	msg := InstantAlert(best, testReading(), dec("3920"), dec("0.02"), time.Date(2026, 8, 29, 14, 30, 5, 0, time.UTC))

	for _, want := range []string{
		"ALERTA INSTANTÁNEA",
		"3,900 COP",
		"-2.50%",
		"vendedor1",
		"250 órdenes, 98.7% éxito",
		"14:30:05",
		"10,000 COP", // savings on 100 USD at 100 below the reference
		"p2p.binance.com",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("alert missing %q:\n%s", want, msg)
		}
	}
}

func TestDigest(t *testing.T) {
	nearest := []engine.RankedQuote{
		{
			Quote:               market.Quote{Price: dec("3915"), Seller: "vendedor1", CompletedOrders: 100},
			DistanceToThreshold: dec("5"),
			DiscountPercent:     dec("2.13"),
		},
		{
			Quote:               market.Quote{Price: dec("3900"), Seller: "vendedor2", CompletedOrders: 300},
			DistanceToThreshold: dec("20"),
			DiscountPercent:     dec("2.5"),
		},
		{
			Quote:               market.Quote{Price: dec("3930"), Seller: "vendedor3", CompletedOrders: 50},
			DistanceToThreshold: dec("10"),
			DiscountPercent:     dec("1.75"),
		},
	}
	msg := Digest(nearest, testReading(), dec("3920"), dec("0.02"), dec("20"), 30*time.Minute)

	for _, want := range []string{
		"REPORTE CADA 30 MIN",
		"🟢 *#1 - 3,915 COP* (¡OPORTUNIDAD!)",
		"🟢 *#2 - 3,900 COP* (¡OPORTUNIDAD!)",
		"🟡 *#3 - 3,930 COP* (MUY CERCA)",
		"vendedor2 | 300 órdenes",
		"RESUMEN",
		"Mejor precio: 3,900 COP",
		"Mayor descuento: +2.50%",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("digest missing %q:\n%s", want, msg)
		}
	}
}

func TestStatus(t *testing.T) {
	msg := Status(StatusData{
		HasRate:       true,
		Rate:          testReading(),
		Threshold:     dec("3920"),
		InstantAlerts: 2,
		Digests:       4,
		NextRefreshIn: 25 * time.Minute,
		NextDigestIn:  -time.Minute, // overdue clamps to zero
		StartedAt:     time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC),
	})

	for _, want := range []string{
		"ESTADO DEL BOT",
		"4,000.00 COP",
		"*Alertas instantáneas:* 2",
		"*Alertas periódicas:* 4",
		"*Próxima actualización TRM:* 25 minutos",
		"*Próximo reporte:* 0 minutos",
		"2026-08-29 08:00:00",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("status missing %q:\n%s", want, msg)
		}
	}
}

func TestStatusWithoutRate(t *testing.T) {
	msg := Status(StatusData{})
	if !strings.Contains(msg, "sin datos") {
		t.Fatalf("status without a rate should say so:\n%s", msg)
	}
}
