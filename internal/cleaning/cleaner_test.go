package cleaning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"sales-analytics/internal/config"
	"sales-analytics/internal/dataset"
	"sales-analytics/internal/sales"
	"sales-analytics/internal/sales/salestest"
)

func TestCanonicalizeCity(t *testing.T) {
	c := New()
	cases := map[string]string{
		"Bengaluru":                 "bangalore",
		" BANGALORE ":               "bangalore",
		"Chennai":                   "chennai",
		"benson town":               "bangalore",
		"Banashankari":              "bangalore",
		"Electronic City Bengaluru": "bangalore",
		"mangalore":                 "bangalore",
		"Mumbai":                    "mumbai",
		"":                          "",
	}
	for in, want := range cases {
		require.Equal(t, want, c.CanonicalizeCity(in), "input %q", in)
	}
}

func TestClean_CityImputation(t *testing.T) {
	events := []sales.Event{
		salestest.Event(1, "2024-01-01", "Bengaluru", "100"),
		salestest.Event(2, "2024-01-01", "", "100"),
		salestest.Event(3, "2024-01-01", "Chennai", "100"),
	}
	out := New().Clean(events)

	require.Equal(t, "bangalore", *out[0].City)
	require.Equal(t, "bangalore", *out[1].City)
	require.Equal(t, "chennai", *out[2].City)
	require.Equal(t, []sales.DataQualityWarning{{
		Code: sales.WarnCityImputed, Field: sales.ColCity, Message: "missing city set to bangalore",
	}}, out[1].Quality)
	require.Empty(t, out[0].Quality)
}

func TestClean_ImputesBatchMean(t *testing.T) {
	events := []sales.Event{
		salestest.Event(1, "2024-01-01", "chennai", "100"),
		salestest.Event(2, "2024-01-01", "chennai", ""),
		salestest.Event(3, "2024-01-01", "chennai", "300"),
	}
	out := New().Clean(events)

	require.Equal(t, "200", out[1].Subtotal.Decimal.String())
	total := out[0].Subtotal.Decimal.Add(out[1].Subtotal.Decimal).Add(out[2].Subtotal.Decimal)
	require.Equal(t, "600", total.String())
	require.Equal(t, sales.WarnSubtotalImputed, out[1].Quality[0].Code)
}

func TestClean_AllSubtotalsMissing(t *testing.T) {
	out := New().Clean([]sales.Event{salestest.Event(1, "2024-01-01", "chennai", "")})
	require.True(t, out[0].Subtotal.Valid)
	require.True(t, out[0].Subtotal.Decimal.IsZero())
	require.Equal(t, sales.WarnSubtotalDefaulted, out[0].Quality[0].Code)
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	events := []sales.Event{salestest.Event(1, "2024-01-01", " Bengaluru ", "")}
	_ = New().Clean(events)
	require.Equal(t, " Bengaluru ", *events[0].City)
	require.False(t, events[0].Subtotal.Valid)
	require.Empty(t, events[0].Quality)
}

func TestClean_Idempotent(t *testing.T) {
	c := New()
	events := []sales.Event{
		salestest.WithOrigin(salestest.Event(1, "2024-01-01", "Bengaluru", "120"), "googleads.g.doubleclick.net"),
		salestest.WithOrigin(salestest.Event(2, "2024-01-02", "", ""), "l.instagram.com"),
		salestest.WithOrigin(salestest.Event(3, "2024-01-03", " YELAHANKA ", "80"), "(direct)"),
		salestest.WithOrigin(salestest.Event(4, "2024-01-04", "Chennai", ""), "m.facebook.com"),
	}

	once := c.CanonicalizeChannels(c.Clean(events))
	twice := c.CanonicalizeChannels(c.Clean(once))

	require.Len(t, twice, len(once))
	for i := range once {
		require.Equal(t, *once[i].City, *twice[i].City)
		require.True(t, once[i].Subtotal.Decimal.Equal(twice[i].Subtotal.Decimal))
		require.Equal(t, *once[i].SourceOrigin, *twice[i].SourceOrigin)
		require.Equal(t, once[i].Quality, twice[i].Quality, "second pass adds no warnings")
	}
}

func TestCanonicalizeChannel_RuleOrderIsPinned(t *testing.T) {
	c := New()
	cases := map[string]string{
		// "ads" fires first, then the "google" pass overrides its label.
		"googleads.g.doubleclick.net": "google",
		"adsense":                     "google",
		"Google":                      "google",
		" l.INSTAGRAM.com ":           "instagram",
		"ig":                          "instagram",
		"digital":                     "instagram",
		"m.facebook.com":              "facebook",
		"fb":                          "facebook",
		"(direct)":                    "direct",
		"whatsapp":                    "whatsapp",
		"chatgpt.com":                 "chatgpt",
		"bing":                        "bing",
		"zomato":                      "zomato",
	}
	for in, want := range cases {
		require.Equal(t, want, c.CanonicalizeChannel(in), "input %q", in)
	}

	labels := make([]string, 0, len(c.ChannelRules))
	for _, r := range c.ChannelRules {
		labels = append(labels, r.Tokens[0]+"->"+r.Canonical)
	}
	require.Equal(t, []string{
		"ads->google ads", "google->google", "insta->instagram", "ig->instagram", "facebook->facebook",
		"fb->facebook", "direct->direct", "whatsapp->whatsapp", "chatgpt->chatgpt", "bing->bing",
	}, labels)
}

func TestCanonicalizeChannels_KeepsMissing(t *testing.T) {
	events := []sales.Event{salestest.Event(1, "2024-01-01", "chennai", "10")}
	out := New().CanonicalizeChannels(events)
	require.Nil(t, out[0].SourceOrigin)
}

func TestCleanTable_SchemaError(t *testing.T) {
	tbl := dataset.New("sales", sales.ColEventDate, sales.ColCity)
	_, err := New().CleanTable(tbl)
	var schemaErr *sales.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	require.Equal(t, sales.ColPincode, schemaErr.Column)
}

func TestFromConfig(t *testing.T) {
	c := FromConfig(config.Cleaning{
		DefaultCity: "mumbai",
		CityRules:   []config.Rule{{Match: "prefix", Tokens: []string{" BOM"}, Canonical: "mumbai"}},
	})
	require.Equal(t, "mumbai", c.CanonicalizeCity("Bombay"))
	require.Equal(t, "bengaluru", c.CanonicalizeCity("Bengaluru"))
	require.Len(t, c.ChannelRules, 10)

	out := c.Clean([]sales.Event{salestest.Event(1, "2024-01-01", "", "1")})
	require.Equal(t, "mumbai", *out[0].City)
}

func TestFromConfig_MixedCaseValuesStayIdempotent(t *testing.T) {
	c := FromConfig(config.Cleaning{
		DefaultCity:  " Bangalore ",
		CityRules:    []config.Rule{{Match: "suffix", Tokens: []string{"luru"}, Canonical: "Bangalore"}},
		ChannelRules: []config.Rule{{Match: "contains", Tokens: []string{"Google"}, Canonical: "Google"}},
	})
	require.Equal(t, "bangalore", c.DefaultCity)

	events := []sales.Event{
		salestest.WithOrigin(salestest.Event(1, "2024-01-01", "", "100"), "www.google.com"),
		salestest.Event(2, "2024-01-01", "Bengaluru", "300"),
	}
	once := c.Clean(events)
	require.Equal(t, "bangalore", *once[0].City)
	require.Equal(t, "bangalore", *once[1].City)

	twice := c.Clean(once)
	for i := range once {
		require.Equal(t, *once[i].City, *twice[i].City)
		require.True(t, once[i].Subtotal.Decimal.Equal(twice[i].Subtotal.Decimal))
	}

	channels := c.CanonicalizeChannels(once)
	require.Equal(t, "google", *channels[0].SourceOrigin)
	require.Equal(t, *channels[0].SourceOrigin, *c.CanonicalizeChannels(channels)[0].SourceOrigin)
}
