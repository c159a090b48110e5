// Package cleaning canonicalises the noisy categorical columns of the sales
// events and imputes missing subtotals.
package cleaning

import (
	"strings"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/config"
	"sales-analytics/internal/dataset"
	"sales-analytics/internal/sales"
)

type Cleaner struct {
	DefaultCity  string
	CityRules    []RewriteRule
	ChannelRules []RewriteRule
}

// New returns a Cleaner with the historical city and channel rules.
func New() *Cleaner {
	return &Cleaner{
		DefaultCity:  DefaultCity,
		CityRules:    DefaultCityRules(),
		ChannelRules: DefaultChannelRules(),
	}
}

// FromConfig overrides the defaults with whatever the config sets. The
// default city and rule outputs are normalised like cleaned values so that a
// second Clean leaves them unchanged.
func FromConfig(cfg config.Cleaning) *Cleaner {
	c := New()
	if city := normalize(cfg.DefaultCity); city != "" {
		c.DefaultCity = city
	}
	if len(cfg.CityRules) > 0 {
		c.CityRules = rulesFromConfig(cfg.CityRules)
	}
	if len(cfg.ChannelRules) > 0 {
		c.ChannelRules = rulesFromConfig(cfg.ChannelRules)
	}
	return c
}

// CleanTable converts a raw sales table into cleaned events. A missing column
// fails with *sales.SchemaError before any row is touched.
func (c *Cleaner) CleanTable(tbl *dataset.Table) ([]sales.Event, error) {
	events, err := sales.EventsFromTable(tbl)
	if err != nil {
		return nil, err
	}
	return c.Clean(events), nil
}

// Clean returns a cleaned copy of events: cities are canonicalised and
// imputed, and missing subtotals take the batch mean of present ones.
func (c *Cleaner) Clean(events []sales.Event) []sales.Event {
	out := make([]sales.Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}

	for i := range out {
		if out[i].City == nil {
			city := c.DefaultCity
			out[i].City = &city
			out[i].Quality = append(out[i].Quality, sales.DataQualityWarning{
				Code: sales.WarnCityImputed, Field: sales.ColCity, Message: "missing city set to " + city,
			})
			continue
		}
		city := c.CanonicalizeCity(*out[i].City)
		out[i].City = &city
	}

	fill, defaulted := meanSubtotal(out)
	for i := range out {
		if out[i].Subtotal.Valid {
			continue
		}
		out[i].Subtotal = decimal.NewNullDecimal(fill)
		code := sales.WarnSubtotalImputed
		if defaulted {
			code = sales.WarnSubtotalDefaulted
		}
		out[i].Quality = append(out[i].Quality, sales.DataQualityWarning{
			Code: code, Field: sales.ColSubtotal, Message: "missing subtotal set to " + fill.String(),
		})
	}
	return out
}

// CanonicalizeCity lower-cases and trims v, then applies the city rules.
func (c *Cleaner) CanonicalizeCity(v string) string {
	return Apply(c.CityRules, normalize(v))
}

// CanonicalizeChannel lower-cases and trims v, then applies the channel rules.
func (c *Cleaner) CanonicalizeChannel(v string) string {
	return Apply(c.ChannelRules, normalize(v))
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// CanonicalizeChannels returns a copy of events with SourceOrigin rewritten.
// Missing origins stay missing.
func (c *Cleaner) CanonicalizeChannels(events []sales.Event) []sales.Event {
	out := make([]sales.Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
		if out[i].SourceOrigin != nil {
			v := c.CanonicalizeChannel(*out[i].SourceOrigin)
			out[i].SourceOrigin = &v
		}
	}
	return out
}

// meanSubtotal averages the present subtotals. With none present it returns
// zero and reports that the default was used.
func meanSubtotal(events []sales.Event) (decimal.Decimal, bool) {
	sum := decimal.Zero
	n := int64(0)
	for _, e := range events {
		if e.Subtotal.Valid {
			sum = sum.Add(e.Subtotal.Decimal)
			n++
		}
	}
	if n == 0 {
		return decimal.Zero, true
	}
	return sum.Div(decimal.NewFromInt(n)), false
}
