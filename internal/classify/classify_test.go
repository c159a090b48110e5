package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sales-analytics/internal/reshape"
	"sales-analytics/internal/sales"
	"sales-analytics/internal/sales/salestest"
)

func facts(t *testing.T) []sales.ItemFact {
	t.Helper()
	events := []sales.Event{
		salestest.Event(1, "2024-01-01", "bangalore", "200",
			salestest.Item{Name: "Croissant", Price: "100", Quantity: "2"},
			salestest.Item{Name: "croissant", Price: "100", Quantity: "1"},
		),
		salestest.Event(2, "2024-01-01", "bangalore", "500", salestest.Item{Name: "Tres Leches", Price: "500", Quantity: "1"}),
	}
	out, err := reshape.Reshape(events)
	require.NoError(t, err)
	return out
}

func TestClassify_ExactMatchOnly(t *testing.T) {
	lookup := Lookup{"Croissant": "Cookies & Biscuits", "Tres Leches": "Cakes & Loaves"}
	out := Classify(facts(t), lookup)
	require.Len(t, out, 10)

	require.Equal(t, "Cookies & Biscuits", *out[0].Category)
	require.Nil(t, out[1].Category, "lookup is case sensitive")
	require.Equal(t, sales.WarnUnclassifiedProduct, out[1].Quality[0].Code)
	require.Equal(t, Unclassified, CategoryOf(out[1]))
	require.Equal(t, "Cakes & Loaves", *out[5].Category)

	for _, f := range out {
		if !f.Named() {
			require.Nil(t, f.Category)
			require.Empty(t, f.Quality)
		}
	}
}

func TestClassify_EmptyLookup(t *testing.T) {
	out := Classify(facts(t), nil)
	for _, f := range reshape.Named(out) {
		require.Nil(t, f.Category)
		require.Len(t, f.Quality, 1)
	}
}

func TestClassify_KeepsRevenueAndInput(t *testing.T) {
	in := facts(t)
	out := Classify(in, Lookup{"Croissant": "Cookies & Biscuits"})
	for i := range in {
		require.Nil(t, in[i].Category)
		require.Equal(t, in[i].Revenue, out[i].Revenue)
		if out[i].Revenue.Valid {
			require.True(t, out[i].Revenue.Decimal.Equal(out[i].Price.Decimal.Mul(out[i].Quantity.Decimal)))
		}
	}
	require.Empty(t, in[1].Quality)
}

func TestLoadLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Croissant: Cookies & Biscuits\n\"Tres Leches\": Cakes & Loaves\n"), 0o644))

	lookup, err := LoadLookup(path)
	require.NoError(t, err)
	require.Equal(t, Lookup{"Croissant": "Cookies & Biscuits", "Tres Leches": "Cakes & Loaves"}, lookup)

	empty, err := ParseLookup(nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = ParseLookup([]byte("- a\n- b\n"))
	require.Error(t, err)
}
