package market

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRankSortsAscending(t *testing.T) {
	quotes := []Quote{
		{Price: dec("4010"), Seller: "c"},
		{Price: dec("3900"), Seller: "a"},
		{Price: dec("3950"), Seller: "b"},
	}

	ranked := Rank(quotes)

	for i := 1; i < len(ranked); i++ {
		if ranked[i].Price.LessThan(ranked[i-1].Price) {
			t.Fatalf("output not ascending at %d: %s after %s", i, ranked[i].Price, ranked[i-1].Price)
		}
	}
	if ranked[0].Seller != "a" || ranked[2].Seller != "c" {
		t.Fatalf("unexpected order: %+v", ranked)
	}

	// Input must stay untouched.
	if !quotes[0].Price.Equal(dec("4010")) {
		t.Fatal("Rank must not modify its input")
	}
}

func TestRankStableOnEqualPrices(t *testing.T) {
	quotes := []Quote{
		{Price: dec("3900"), Seller: "first"},
		{Price: dec("3900"), Seller: "second"},
		{Price: dec("3800"), Seller: "cheapest"},
	}

	ranked := Rank(quotes)
	if ranked[1].Seller != "first" || ranked[2].Seller != "second" {
		t.Fatalf("equal prices must keep input order: %+v", ranked)
	}
}

func TestRankIdempotentAndEmpty(t *testing.T) {
	quotes := []Quote{{Price: dec("2")}, {Price: dec("1")}}

	once := Rank(quotes)
	twice := Rank(once)
	for i := range once {
		if !once[i].Price.Equal(twice[i].Price) {
			t.Fatal("rank(rank(q)) should equal rank(q)")
		}
	}

	if got := Rank(nil); len(got) != 0 {
		t.Fatalf("empty input should yield empty output, got %d", len(got))
	}
}
