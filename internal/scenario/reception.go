package scenario

import (
	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/grouping"
	"shopfloor_go/internal/scan"
)

func Reception() *engine.Scenario {
	return &engine.Scenario{
		Name:    "reception",
		Title:   "Reception",
		Initial: "start",
		Policy:  scan.QuantityPolicy{Ceiling: scan.DefaultCeiling, Zero: scan.ZeroInvalid},
		Heading: func(m *engine.Machine) string { return m.Shared().String("partner_name") },
		States: map[string]*engine.State{
			"start": {
				Title:       "Select a vendor",
				Placeholder: "Type or scan a vendor name",
				Enter: func(m *engine.Machine) {
					if !m.Data().Has("partners") {
						_ = m.Call("list_vendor_with_pickings", nil)
					}
				},
				OnScan: func(m *engine.Machine, raw string) error {
					text, err := lookup(m, raw)
					if err != nil {
						return err
					}
					matches := filterPartners(decodeRecords(m, "partners"), text)
					if len(matches) == 0 {
						return m.Fail(engine.ErrClassification, "No vendor matches "+text+".")
					}
					_ = m.Data().Set("filter", text)
					return nil
				},
				Actions: map[string]engine.Action{
					"select": engine.Do(func(m *engine.Machine, p engine.Payload) error {
						r, ok := findRecord(decodeRecords(m, "partners"), p.Int("id"))
						if !ok {
							return m.Fail(engine.ErrContext, msgUnknownRecord)
						}
						return m.Call("list_move_lines", engine.Params{"partner_id": r.ID}, func(m *engine.Machine, _ domain.Envelope) {
							_ = m.Shared().Set("partner_id", r.ID)
							_ = m.Shared().Set("partner_name", r.Name)
						})
					}),
					"clear_filter": engine.Nav(func(m *engine.Machine, _ engine.Payload) error {
						delete(m.Data(), "filter")
						return nil
					}),
				},
				Render: func(m *engine.Machine, v *engine.View) {
					recs := decodeRecords(m, "partners")
					if f := m.Data().String("filter"); f != "" {
						recs = filterPartners(recs, f)
						fieldIf(v, "Filter", f)
					}
					v.Records = recordViews(recs)
				},
			},
			"scan_products": {
				Title:   "Receive products",
				Display: receptionPlaceholder,
				Owns:    engine.ScopeAll,
				Back:    "start",
				Lines:   linesAt("move_lines"),
				OnScan:  receptionScan,
				Render: func(m *engine.Machine, v *engine.View) {
					v.Groups = engine.ProductGroups(grouping.GroupByProduct(m.Lines(), m.GroupOptions()))
				},
			},
		},
	}
}

func filterPartners(recs []namedRecord, text string) []namedRecord {
	var out []namedRecord
	for _, r := range recs {
		if matchName(r.Name, text) {
			out = append(out, r)
		}
	}
	return out
}

func receptionPlaceholder(m *engine.Machine) engine.DisplayInfo {
	if m.Selection().HasProduct() {
		return engine.DisplayInfo{Placeholder: "Scan the received quantity or another product"}
	}
	return engine.DisplayInfo{Placeholder: "Scan a product"}
}

func receptionScan(m *engine.Machine, raw string) error {
	sel := m.Selection()
	partner := m.Shared().Int("partner_id")
	tok := m.Classify(raw)
	switch tok.Kind {
	case scan.Product:
		barcode, lineID := tok.Raw, tok.Line.ID
		return m.Call("scan_product", engine.Params{"partner_id": partner, "barcode": barcode},
			func(m *engine.Machine, _ domain.Envelope) {
				m.Selection().SelectProduct(barcode, lineID)
			})
	case scan.Quantity:
		return m.Call("set_quantity", engine.Params{
			"partner_id": partner,
			"barcode":    sel.LastScanned,
			"qty":        tok.Quantity,
		}, func(m *engine.Machine, _ domain.Envelope) {
			m.Selection().Clear(engine.ScopeProduct)
		})
	case scan.Location:
		return m.Fail(engine.ErrContext, "Scan a product.")
	}
	return reject(m, tok)
}
