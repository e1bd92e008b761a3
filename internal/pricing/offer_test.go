package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOffer(t *testing.T) {
	o, err := ParseOffer("TWO_FOR_AMOUNT", soap, dec("3.0"))
	require.NoError(t, err)
	require.Equal(t, KindNForAmount, o.Kind)
	require.EqualValues(t, 2, o.GroupSize)

	o, err = ParseOffer("five_for_amount", toothpaste, dec("7.49"))
	require.NoError(t, err)
	require.EqualValues(t, 5, o.GroupSize)

	o, err = ParseOffer("TEN_PERCENT_DISCOUNT", apples, dec("10"))
	require.NoError(t, err)
	require.Equal(t, KindPercentOff, o.Kind)

	_, err = ParseOffer("BUY_ONE_GET_ONE", soap, dec("1"))
	require.ErrorIs(t, err, ErrInvalidOffer)

	_, err = ParseOffer("TEN_PERCENT_DISCOUNT", apples, dec("120"))
	require.ErrorIs(t, err, ErrInvalidOffer)
}

func TestOffersKeepOnePerProduct(t *testing.T) {
	pool := Offers{}
	pool.Add(ThreeForTwo(toothbrush))
	pool.Add(PercentOff(toothbrush, dec("10")))
	require.Len(t, pool, 1)
	require.Equal(t, KindPercentOff, pool[toothbrush].Kind)
}

func TestNewBundleOfferValidation(t *testing.T) {
	_, err := NewBundleOffer("bad", []BundleItem{{Product: toothbrush, Quantity: dec("0")}}, DefaultBundlePercent)
	if !errors.Is(err, ErrInvalidBundle) {
		t.Fatalf("expected ErrInvalidBundle for zero quantity, got %v", err)
	}
	_, err = NewBundleOffer("dup", []BundleItem{
		{Product: toothbrush, Quantity: dec("1")},
		{Product: toothbrush, Quantity: dec("2")},
	}, DefaultBundlePercent)
	require.ErrorIs(t, err, ErrInvalidBundle)

	_, err = NewBundleOffer("pct", nil, dec("-5"))
	require.ErrorIs(t, err, ErrInvalidBundle)
}

func TestBundleOfferCopiesItems(t *testing.T) {
	items := []BundleItem{{Product: toothbrush, Quantity: dec("1")}}
	b, err := NewBundleOffer("copy", items, DefaultBundlePercent)
	require.NoError(t, err)
	items[0].Quantity = dec("9")
	requireDecimal(t, "1", b.Items[0].Quantity)
}

func TestTotalSavings(t *testing.T) {
	ds := []Discount{{Amount: dec("-0.99")}, {Amount: dec("-1.46")}}
	requireDecimal(t, "2.45", TotalSavings(ds))
}
