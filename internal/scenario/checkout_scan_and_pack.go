package scenario

import (
	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/grouping"
	"shopfloor_go/internal/scan"
)

func CheckoutScanAndPack() *engine.Scenario {
	return &engine.Scenario{
		Name:    "checkout_scan_and_pack",
		Title:   "Checkout (scan and pack)",
		Initial: "select_document",
		Policy:  scan.QuantityPolicy{Ceiling: scan.DefaultCeiling, Zero: scan.ZeroResets},
		Heading: pickingHeading,
		States: map[string]*engine.State{
			"select_document":  checkoutSelectDocument(),
			"manual_selection": checkoutManualSelection(),
			"scan_products": {
				Title:       "Scan and pack",
				Placeholder: "Scan a product or a quantity",
				Enter:       enterPicking,
				Owns:        engine.ScopeAll,
				Back:        "select_document",
				Lines:       pickingLines,
				OnScan:      scanAndPackProducts,
				Actions: map[string]engine.Action{
					"done": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
						return m.Call("done", engine.Params{"picking_id": pickingID(m)})
					}),
				},
				Render: func(m *engine.Machine, v *engine.View) {
					opts := m.GroupOptions()
					v.Groups = engine.LocationGroups(grouping.GroupByLocation(m.Lines(), opts))
					fieldIf(v, "Product", m.Selection().LastScanned)
				},
			},
			"confirm_done": checkoutConfirmDone("scan_products"),
		},
	}
}

func scanAndPackProducts(m *engine.Machine, raw string) error {
	sel := m.Selection()
	tok := m.Classify(raw)
	switch tok.Kind {
	case scan.Quantity:
		line, ok := firstOpen(m.Lines(), sel.LastScanned)
		if !ok {
			sel.Clear(engine.ScopeProduct)
			return m.Fail(engine.ErrContext, msgNoMoreProduct)
		}
		params := engine.Params{
			"barcode":      sel.LastScanned,
			"picking_id":   pickingID(m),
			"move_line_id": line.ID,
			"qty":          tok.Quantity,
		}
		if tok.IsZero() {
			return m.Call("set_quantity", params, func(m *engine.Machine, _ domain.Envelope) {
				m.Selection().Clear(engine.ScopeProduct)
			})
		}
		return m.Call("set_quantity", params)
	case scan.Product:
		barcode, lineID := tok.Raw, tok.Line.ID
		return m.Call("scan_product", engine.Params{"barcode": barcode, "picking_id": pickingID(m)},
			func(m *engine.Machine, _ domain.Envelope) {
				m.Selection().SelectProduct(barcode, lineID)
			})
	case scan.Location:
		return m.Fail(engine.ErrContext, "Scan a product.")
	}
	return reject(m, tok)
}
