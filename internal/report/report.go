// Package report renders the recipient-facing Markdown messages. The
// recipient reads Spanish; operator logs stay in English.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/distrobmj-cmd/julianarbitraje/internal/engine"
	"github.com/distrobmj-cmd/julianarbitraje/internal/rate"
)

const p2pLink = "🔗 [Ir a Binance P2P](https://p2p.binance.com/es/trade/buy/USDT?fiat=COP)"

var decHundred = decimal.NewFromInt(100)

// savingsPer100USD is the COP saved on a 100 USD purchase at the given price.
func savingsPer100USD(rateValue, price decimal.Decimal) decimal.Decimal {
	return rateValue.Sub(price).Mul(decHundred)
}

func discountLabel(discountFraction decimal.Decimal) string {
	return "-" + discountFraction.Mul(decHundred).String() + "%"
}

// RateSummary is the message sent after every successful reference-rate refresh.
func RateSummary(r rate.Reading, threshold, discountFraction decimal.Decimal, refreshInterval, digestInterval time.Duration) string {
	var b strings.Builder
	b.WriteString("📊 *ACTUALIZACIÓN TRM AUTOMÁTICA*\n\n")
	fmt.Fprintf(&b, "🏛️ *TRM Oficial Banrep:* %s COP\n", formatCOP(r.Value, 2))
	fmt.Fprintf(&b, "📅 *Fecha:* %s\n", r.EffectiveDate)
	fmt.Fprintf(&b, "🎯 *Umbral alerta (%s):* %s COP\n\n", discountLabel(discountFraction), formatCOP(threshold, 0))
	fmt.Fprintf(&b, "🔄 *Próxima actualización:* %d minutos\n", int(refreshInterval.Minutes()))
	fmt.Fprintf(&b, "📢 *Alertas periódicas cada:* %d minutos\n", int(digestInterval.Minutes()))
	b.WriteString("🤖 *Bot monitoreando Binance P2P...*")
	return b.String()
}

// RateChange is the out-of-band notification for a materially different
// reference rate.
func RateChange(out rate.Outcome) string {
	var b strings.Builder
	b.WriteString("🔔 *CAMBIO DE TRM DETECTADO*\n\n")
	fmt.Fprintf(&b, "📉 *Anterior:* %s COP\n", formatCOP(out.Old, 2))
	fmt.Fprintf(&b, "📈 *Nueva:* %s COP\n", formatCOP(out.New, 2))
	fmt.Fprintf(&b, "📊 *Variación:* %s%%", formatSignedPct(out.DeltaPct()))
	return b.String()
}

// InstantAlert is the immediate notification for a qualifying best price.
func InstantAlert(best engine.RankedQuote, r rate.Reading, threshold, discountFraction decimal.Decimal, now time.Time) string {
	var b strings.Builder
	b.WriteString("🚨 *¡ALERTA INSTANTÁNEA USDT!* 🚨\n\n")
	fmt.Fprintf(&b, "🏛️ *TRM OFICIAL:* %s COP\n", formatCOP(r.Value, 2))
	fmt.Fprintf(&b, "🎯 *Umbral (%s):* %s COP\n", discountLabel(discountFraction), formatCOP(threshold, 0))
	fmt.Fprintf(&b, "💰 *MEJOR PRECIO:* %s COP\n\n", formatCOP(best.Price, 0))
	fmt.Fprintf(&b, "📈 *Descuento real: -%s%%*\n", best.DiscountPercent.StringFixed(2))
	fmt.Fprintf(&b, "💡 *Ahorro por $100 USD: %s COP*\n\n", formatCOP(savingsPer100USD(r.Value, best.Price), 0))
	fmt.Fprintf(&b, "👤 *Vendedor:* %s\n", best.Seller)
	fmt.Fprintf(&b, "📊 *%d órdenes, %s%% éxito*\n\n", best.CompletedOrders, best.SuccessRatePercent.StringFixed(1))
	fmt.Fprintf(&b, "⏰ %s\n", now.Format("15:04:05"))
	b.WriteString(p2pLink)
	return b.String()
}

func tagBadge(tag engine.Tag) (emoji, label string) {
	switch tag {
	case engine.TagOpportunity:
		return "🟢", "¡OPORTUNIDAD!"
	case engine.TagVeryClose:
		return "🟡", "MUY CERCA"
	default:
		return "🟠", "CERCA"
	}
}

// Digest is the periodic summary of the quotes nearest the threshold.
func Digest(nearest []engine.RankedQuote, r rate.Reading, threshold, discountFraction, nearDistance decimal.Decimal, digestInterval time.Duration) string {
	label := discountLabel(discountFraction)

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *REPORTE CADA %d MIN - PRECIOS CERCANOS A %s*\n\n", int(digestInterval.Minutes()), label)
	fmt.Fprintf(&b, "🏛️ *TRM OFICIAL:* %s COP (%s)\n", formatCOP(r.Value, 2), r.EffectiveDate)
	fmt.Fprintf(&b, "🎯 *Umbral objetivo (%s):* %s COP\n\n", label, formatCOP(threshold, 0))
	b.WriteString("🏆 *TOP PRECIOS MÁS CERCANOS:*\n")

	bestPrice := nearest[0].Price
	bestDiscount := nearest[0].DiscountPercent
	for i, q := range nearest {
		if q.Price.LessThan(bestPrice) {
			bestPrice = q.Price
		}
		if q.DiscountPercent.GreaterThan(bestDiscount) {
			bestDiscount = q.DiscountPercent
		}

		emoji, state := tagBadge(engine.Classify(q.Price, threshold, q.DistanceToThreshold, nearDistance))
		fmt.Fprintf(&b, "\n%s *#%d - %s COP* (%s)\n", emoji, i+1, formatCOP(q.Price, 0), state)
		fmt.Fprintf(&b, "   📉 Descuento: %s%%\n", formatSignedPct(q.DiscountPercent))
		fmt.Fprintf(&b, "   📊 %s | %d órdenes\n", q.Seller, q.CompletedOrders)
	}

	b.WriteString("\n💡 *RESUMEN:*\n")
	fmt.Fprintf(&b, "• Mejor precio: %s COP\n", formatCOP(bestPrice, 0))
	fmt.Fprintf(&b, "• Mayor descuento: %s%%\n", formatSignedPct(bestDiscount))
	fmt.Fprintf(&b, "• Ahorro por $100 USD: %s COP\n\n", formatCOP(savingsPer100USD(r.Value, bestPrice), 0))
	fmt.Fprintf(&b, "⏰ *Próximo reporte:* %d minutos\n", int(digestInterval.Minutes()))
	b.WriteString(p2pLink)
	return b.String()
}

// StatusData carries the fields the status command reports.
type StatusData struct {
	Rate          rate.Reading
	HasRate       bool
	Threshold     decimal.Decimal
	InstantAlerts int
	Digests       int
	NextRefreshIn time.Duration
	NextDigestIn  time.Duration
	StartedAt     time.Time
}

// Status answers the status command.
func Status(d StatusData) string {
	var b strings.Builder
	b.WriteString("🤖 *ESTADO DEL BOT*\n\n")
	if d.HasRate {
		fmt.Fprintf(&b, "🏛️ *TRM:* %s COP (%s)\n", formatCOP(d.Rate.Value, 2), d.Rate.EffectiveDate)
		fmt.Fprintf(&b, "🎯 *Umbral:* %s COP\n", formatCOP(d.Threshold, 0))
	} else {
		b.WriteString("🏛️ *TRM:* sin datos\n")
	}
	fmt.Fprintf(&b, "🚨 *Alertas instantáneas:* %d\n", d.InstantAlerts)
	fmt.Fprintf(&b, "📢 *Alertas periódicas:* %d\n", d.Digests)
	fmt.Fprintf(&b, "🔄 *Próxima actualización TRM:* %d minutos\n", minutesUntil(d.NextRefreshIn))
	fmt.Fprintf(&b, "📢 *Próximo reporte:* %d minutos\n", minutesUntil(d.NextDigestIn))
	fmt.Fprintf(&b, "⏱️ *Activo desde:* %s", d.StartedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

func minutesUntil(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d.Minutes())
}

// Help lists the recognized commands.
func Help() string {
	return strings.Join([]string{
		"🤖 *COMANDOS DISPONIBLES*",
		"",
		"• /precios — precios más cercanos al umbral",
		"• /trm — TRM oficial y umbral de alerta",
		"• /estado — estado y contadores del bot",
		"• /ayuda — esta ayuda",
	}, "\n")
}

// Unavailable answers a report command when no market data exists yet.
func Unavailable() string {
	return "⚠️ *Sin datos disponibles todavía.* Intenta de nuevo en un momento."
}

// Shutdown is the best-effort notice sent on termination.
func Shutdown(instantAlerts, digests int) string {
	var b strings.Builder
	b.WriteString("🛑 *Bot TRM Detenido*\n")
	fmt.Fprintf(&b, "📊 Alertas instantáneas: %d\n", instantAlerts)
	fmt.Fprintf(&b, "📢 Alertas periódicas: %d", digests)
	return b.String()
}
