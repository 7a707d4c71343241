package scenario

import (
	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/grouping"
	"shopfloor_go/internal/scan"
)

// inputLocationStart lists the input locations and opens one by scan.
func inputLocationStart(title string) *engine.State {
	inputs := func(m *engine.Machine) []domain.Location {
		var locs []domain.Location
		m.Data().Decode("input_locations", &locs)
		return locs
	}
	open := func(m *engine.Machine, loc domain.Location) error {
		return m.Call("scan_location", engine.Params{"barcode": loc.Barcode})
	}
	return &engine.State{
		Title:       title,
		Placeholder: "Scan an input location",
		Enter: func(m *engine.Machine) {
			_ = m.Call("list_input_location", nil)
		},
		Locations: inputs,
		OnScan: func(m *engine.Machine, raw string) error {
			tok := m.Classify(raw)
			if tok.Kind != scan.Location {
				return reject(m, tok)
			}
			return open(m, *tok.Location)
		},
		Actions: map[string]engine.Action{
			"select": engine.Do(func(m *engine.Machine, p engine.Payload) error {
				id := p.Int("id")
				for _, loc := range inputs(m) {
					if loc.ID == id {
						return open(m, loc)
					}
				}
				return m.Fail(engine.ErrContext, msgUnknownRecord)
			}),
		},
		Render: func(m *engine.Machine, v *engine.View) {
			for _, loc := range inputs(m) {
				v.Records = append(v.Records, engine.Record{ID: loc.ID, Title: loc.Label(), Subtitle: loc.Barcode})
			}
		},
	}
}

func InputStockTransfer() *engine.Scenario {
	return &engine.Scenario{
		Name:    "input_stock_transfer",
		Title:   "Input stock transfer",
		Initial: "start",
		Policy:  scan.DefaultPolicy(),
		States: map[string]*engine.State{
			"start": inputLocationStart("Input stock transfer"),
		},
	}
}

func StockBatchTransfer() *engine.Scenario {
	return &engine.Scenario{
		Name:    "stock_batch_transfer",
		Title:   "Stock batch transfer",
		Initial: "start",
		Policy:  scan.QuantityPolicy{Ceiling: scan.DefaultCeiling, Zero: scan.ZeroResets},
		States: map[string]*engine.State{
			"start": inputLocationStart("Stock batch transfer"),
			"scan_products": {
				Title:   "Transfer products",
				Display: transferPlaceholder,
				Enter:   syncTransfer,
				Owns:    engine.ScopeAll,
				Back:    "start",
				Lines:   transferLines,
				Context: func(m *engine.Machine, ctx *scan.Context) {
					ctx.Locations = append(ctx.Locations, destinations(ctx.Lines)...)
					if loc := m.Selection().Location; loc != nil {
						ctx.Locations = append(ctx.Locations, *loc)
					}
				},
				OnScan: transferScan,
				Render: func(m *engine.Machine, v *engine.View) {
					opts := m.GroupOptions()
					// Lines are grouped where they go; the source is fixed.
					opts.ByDestination = true
					opts.CurrentLocation = 0
					if loc := m.Selection().Location; loc != nil {
						opts.CurrentLocation = loc.ID
					}
					v.Groups = engine.LocationGroups(grouping.GroupByLocation(m.Lines(), opts))
					if loc := m.Selection().Location; loc != nil {
						fieldIf(v, "Destination", loc.Label())
					}
					fieldIf(v, "Product", m.Selection().LastScanned)
				},
			},
		},
	}
}

func transferLines(m *engine.Machine) []domain.OperationLine {
	var open, done []domain.OperationLine
	m.Data().Decode("move_lines", &open)
	m.Data().Decode("move_lines_done", &done)
	for i := range done {
		done[i].Done = true
	}
	return append(open, done...)
}

// syncTransfer mirrors the cursor kept by the backend for this flow: the
// source is the transfer id, the selected location is where goods go.
func syncTransfer(m *engine.Machine) {
	sel := m.Selection()
	d := m.Data()
	sel.Clear(engine.ScopeAll)
	var dest domain.Location
	if d.Decode("selected_location", &dest) && dest.ID != 0 {
		sel.Location = &dest
	}
	sel.Current = d.Int("id")
	var product domain.Product
	if d.Decode("selected_product", &product) && product.ID != 0 {
		lineID := 0
		for _, l := range transferLines(m) {
			if !l.Done && l.Product.ID == product.ID {
				lineID = l.ID
				break
			}
		}
		sel.SelectProduct(product.Barcode, lineID)
	}
	var done []domain.OperationLine
	d.Decode("move_lines_done", &done)
	for _, l := range done {
		sel.MarkPicked(l.ID)
	}
}

func transferPlaceholder(m *engine.Machine) engine.DisplayInfo {
	sel := m.Selection()
	switch {
	case !sel.HasLocation():
		return engine.DisplayInfo{Placeholder: "Scan the destination location"}
	case !sel.HasProduct():
		return engine.DisplayInfo{Placeholder: "Scan a product to drop"}
	default:
		return engine.DisplayInfo{Placeholder: "Scan quantity, product or another destination"}
	}
}

func transferScan(m *engine.Machine, raw string) error {
	sel := m.Selection()
	source := sel.Current
	then := func(m *engine.Machine, _ domain.Envelope) { syncTransfer(m) }
	tok := m.Classify(raw)

	if tok.Kind == scan.Location {
		if sel.HasProduct() {
			return m.Call("set_product_destination", engine.Params{
				"barcode":                    tok.Raw,
				"product_barcode":            sel.LastScanned,
				"current_source_location_id": source,
				"dest_location_id":           sel.Location.ID,
			}, then)
		}
		return m.Call("set_current_location", engine.Params{
			"barcode":                    tok.Raw,
			"current_source_location_id": source,
		}, then)
	}
	if !sel.HasLocation() {
		if tok.Kind == scan.Unrecognized {
			return reject(m, tok)
		}
		return m.Fail(engine.ErrContext, "Scan the destination location first.")
	}

	switch tok.Kind {
	case scan.Product:
		return m.Call("drop_product_to_location", engine.Params{
			"barcode":                    tok.Raw,
			"current_source_location_id": source,
			"dest_location_id":           sel.Location.ID,
		}, then)
	case scan.Quantity:
		return m.Call("set_product_qty", engine.Params{
			"barcode":                    sel.LastScanned,
			"current_source_location_id": source,
			"dest_location_id":           sel.Location.ID,
			"qty":                        tok.Quantity,
		}, then)
	}
	return reject(m, tok)
}
