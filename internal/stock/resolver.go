package stock

import (
	"fmt"

	"catalogdeck/internal"
	"catalogdeck/internal/util"
	"catalogdeck/internal/variants"
)

// Resolver renders the ready-to-ship and made-to-order summaries for a catalog row.
type Resolver struct {
	stock        *internal.Table
	configurator *variants.Configurator
	labels       variants.Labels
	keyField     string // catalog column holding the stock join key
	nameField    string // catalog column holding the display name
}

func NewResolver(stock *internal.Table, configurator *variants.Configurator, labels variants.Labels, keyField, nameField string) *Resolver {
	return &Resolver{
		stock:        stock,
		configurator: configurator,
		labels:       labels,
		keyField:     keyField,
		nameField:    nameField,
	}
}

func (r *Resolver) ResolveRTS(row internal.Record) (string, error) {
	return r.resolve(row, internal.StockRTSColumn)
}

func (r *Resolver) ResolveMTO(row internal.Record) (string, error) {
	return r.resolve(row, internal.StockMTOColumn)
}

// Variants returns the deduplicated variant names of the row's product whose flag column
// is non-blank, in stock sheet order.
func (r *Resolver) Variants(row internal.Record, flagColumn string) ([]string, error) {
	names, _, err := r.flagged(row, flagColumn)
	return names, err
}

// flagged also reports whether any stock row of the product carries the flag, even when
// none of those rows names its variant.
func (r *Resolver) flagged(row internal.Record, flagColumn string) ([]string, bool, error) {
	key := row.Get(r.keyField)
	if util.IsBlank(key) {
		return nil, false, nil
	}
	for _, col := range []string{internal.StockKeyColumn, flagColumn, internal.StockVariantColumn} {
		if !r.stock.HasColumn(col) {
			return nil, false, fmt.Errorf("stock sheet %s has no %q column", r.stock.Name, col)
		}
	}

	normKey := util.Normalize(key)
	names := []string{}
	found := false
	for _, rec := range r.stock.Records {
		if util.Normalize(rec.Get(internal.StockKeyColumn)) != normKey {
			continue
		}
		if util.IsBlank(rec.Get(flagColumn)) {
			continue
		}
		found = true
		names = append(names, rec.Get(internal.StockVariantColumn))
	}
	return variants.Dedupe(names), found, nil
}

func (r *Resolver) resolve(row internal.Record, flagColumn string) (string, error) {
	names, found, err := r.flagged(row, flagColumn)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	// Configurator families render their fixed options whatever the variant rows say.
	if opts, ok := r.configurator.Lookup(row.Get(r.nameField)); ok {
		return opts.Render(r.labels), nil
	}
	if len(names) == 0 {
		return "", nil
	}
	return variants.Group(names), nil
}
