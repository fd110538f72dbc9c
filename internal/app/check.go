package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/distrobmj-cmd/julianarbitraje/internal/engine"
	"github.com/distrobmj-cmd/julianarbitraje/internal/market"
)

// Check performs a single fetch-and-evaluate pass and prints the quotes
// nearest the threshold. No alert is sent and no state is kept.
func (a *App) Check(ctx context.Context) error {
	store := a.newRateStore()
	if _, err := store.Refresh(ctx); err != nil {
		return err
	}
	reading, ok := store.Current()
	if !ok {
		return fmt.Errorf("no reference rate available")
	}

	quotes, err := a.newQuoteSource().FetchQuotes(ctx, market.Side(strings.ToUpper(a.Config.Market.TradeType)), a.Config.Market.Rows)
	if err != nil {
		return fmt.Errorf("fetch quotes: %w", err)
	}

	discount := decimal.NewFromFloat(a.Config.Alerting.DiscountFraction)
	nearDistance := decimal.NewFromFloat(a.Config.Alerting.NearDistance)
	threshold := engine.Threshold(reading.Value, discount)
	nearest := engine.NearestToThreshold(market.Rank(quotes), reading.Value, threshold, a.Config.Alerting.DigestTopK)

	fmt.Fprintf(os.Stdout, "TRM: %s COP (%s)\nThreshold: %s COP\n\n", reading.Value.StringFixed(2), reading.EffectiveDate, threshold.StringFixed(2))

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "#\tPrice\tDistance\tDiscount%\tState\tSeller\tOrders\tSuccess%")

	for i, q := range nearest {
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			i+1,
			q.Price.StringFixed(0),
			q.DistanceToThreshold.StringFixed(0),
			q.DiscountPercent.StringFixed(2),
			tagName(engine.Classify(q.Price, threshold, q.DistanceToThreshold, nearDistance)),
			q.Seller,
			q.CompletedOrders,
			q.SuccessRatePercent.StringFixed(1),
		)
	}

	return writer.Flush()
}

func tagName(tag engine.Tag) string {
	switch tag {
	case engine.TagOpportunity:
		return "opportunity"
	case engine.TagVeryClose:
		return "very close"
	default:
		return "close"
	}
}
