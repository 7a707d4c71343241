package scenario

import (
	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/grouping"
	"shopfloor_go/internal/scan"
)

func Inventory() *engine.Scenario {
	return &engine.Scenario{
		Name:    "inventory",
		Title:   "Inventory",
		Initial: "start",
		Policy:  scan.QuantityPolicy{Ceiling: scan.DefaultCeiling, Zero: scan.ZeroCounts},
		Heading: func(m *engine.Machine) string { return m.Shared().String("inventory_name") },
		States: map[string]*engine.State{
			"start": {
				Title:       "Select an inventory",
				Placeholder: "Scan an inventory name",
				Enter: func(m *engine.Machine) {
					if !m.Data().Has("inventories") {
						_ = m.Call("list_inventory", nil)
					}
				},
				OnScan: func(m *engine.Machine, raw string) error {
					text, err := lookup(m, raw)
					if err != nil {
						return err
					}
					for _, r := range decodeRecords(m, "inventories") {
						if matchName(r.Name, text) {
							return selectInventory(m, r)
						}
					}
					return m.Fail(engine.ErrClassification, "No inventory matches "+text+".")
				},
				Actions: map[string]engine.Action{
					"select": engine.Do(func(m *engine.Machine, p engine.Payload) error {
						r, ok := findRecord(decodeRecords(m, "inventories"), p.Int("id"))
						if !ok {
							return m.Fail(engine.ErrContext, msgUnknownRecord)
						}
						return selectInventory(m, r)
					}),
					"refresh": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
						return m.Call("list_inventory", nil)
					}),
				},
				Render: renderRecords("inventories"),
			},
			"scan_product": {
				Title:   "Count products",
				Display: inventoryPlaceholder,
				Enter:   syncInventory,
				Owns:    engine.ScopeAll,
				Back:    "start",
				Lines:   inventoryLines,
				Context: func(m *engine.Machine, ctx *scan.Context) {
					loc := m.Selection().Location
					if loc == nil {
						return
					}
					var here []domain.OperationLine
					for _, l := range ctx.Lines {
						if l.LocationSrc.ID == loc.ID {
							here = append(here, l)
						}
					}
					ctx.Lines = here
					// Counted lines stay scannable.
					ctx.Picked = lineIDs(here)
				},
				OnScan: inventoryScan,
				Render: func(m *engine.Machine, v *engine.View) {
					lines := scannedLines(m)
					opts := m.GroupOptions()
					opts.KeepEmpty = true
					opts.Picked = lineIDs(lines)
					v.Groups = engine.LocationGroups(grouping.GroupByLocation(lines, opts))
				},
			},
		},
	}
}

func selectInventory(m *engine.Machine, r namedRecord) error {
	return m.Call("select_inventory", engine.Params{"inventory_id": r.ID}, func(m *engine.Machine, _ domain.Envelope) {
		_ = m.Shared().Set("inventory_id", r.ID)
		_ = m.Shared().Set("inventory_name", r.Name)
	})
}

func inventoryLines(m *engine.Machine) []domain.OperationLine {
	var lines []domain.InventoryLine
	m.Data().Decode("inventory_lines", &lines)
	return domain.InventoryOperationLines(lines)
}

type scannedList struct {
	ID         int   `json:"id"`
	ProductIDs []int `json:"product_ids"`
}

// scannedLines limits the view to products already counted in this session.
func scannedLines(m *engine.Machine) []domain.OperationLine {
	lines := m.Lines()
	var list scannedList
	if !m.Data().Decode("product_scanned_list", &list) || len(list.ProductIDs) == 0 {
		return lines
	}
	keep := map[int]bool{}
	for _, id := range list.ProductIDs {
		keep[id] = true
	}
	var out []domain.OperationLine
	for _, l := range lines {
		if keep[l.Product.ID] {
			out = append(out, l)
		}
	}
	return out
}

// syncInventory mirrors the location selected by the backend.
func syncInventory(m *engine.Machine) {
	sel := m.Selection()
	var loc domain.Location
	if m.Data().Decode("selected_location", &loc) && loc.ID != 0 {
		if sel.Location == nil || sel.Location.ID != loc.ID {
			sel.Clear(engine.ScopeProduct)
		}
		sel.SelectLocation(loc)
		return
	}
	sel.Clear(engine.ScopeLocation | engine.ScopeProduct)
}

func inventoryPlaceholder(m *engine.Machine) engine.DisplayInfo {
	sel := m.Selection()
	switch {
	case !sel.HasLocation():
		return engine.DisplayInfo{Placeholder: "Scan a location"}
	case !sel.HasProduct():
		return engine.DisplayInfo{Placeholder: "Scan a product or another location"}
	default:
		return engine.DisplayInfo{Placeholder: "Scan the counted quantity or a product"}
	}
}

func inventoryParams(m *engine.Machine, extra engine.Params) engine.Params {
	p := engine.Params{
		"inventory_id":            m.Shared().Int("inventory_id"),
		"product_scanned_list_id": m.Data().Int("product_scanned_list"),
	}
	if loc := m.Selection().Location; loc != nil {
		p["location_id"] = loc.ID
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func inventoryScan(m *engine.Machine, raw string) error {
	sel := m.Selection()
	then := func(m *engine.Machine, _ domain.Envelope) { syncInventory(m) }

	if !sel.HasLocation() {
		text, err := lookup(m, raw)
		if err != nil {
			return err
		}
		return m.Call("select_location", engine.Params{
			"inventory_id":     m.Shared().Int("inventory_id"),
			"location_barcode": text,
		}, then)
	}

	tok := m.Classify(raw)
	switch tok.Kind {
	case scan.Location:
		return m.Call("select_location", engine.Params{
			"inventory_id":     m.Shared().Int("inventory_id"),
			"location_barcode": tok.Raw,
		}, then)
	case scan.Quantity:
		var line domain.OperationLine
		found := false
		for _, l := range m.ScanContext().Lines {
			if l.Product.MatchesBarcode(sel.LastScanned) {
				line, found = l, true
				break
			}
		}
		if !found {
			return m.Fail(engine.ErrContext, msgNoProduct)
		}
		return m.Call("set_quantity", inventoryParams(m, engine.Params{
			"product_id": line.Product.ID,
			"qty":        tok.Quantity,
		}), func(m *engine.Machine, env domain.Envelope) {
			then(m, env)
			m.Selection().Clear(engine.ScopeProduct)
		})
	case scan.Product:
		barcode, lineID := tok.Raw, tok.Line.ID
		return m.Call("scan_product", inventoryParams(m, engine.Params{"barcode": barcode}),
			func(m *engine.Machine, env domain.Envelope) {
				then(m, env)
				m.Selection().SelectProduct(barcode, lineID)
			})
	}
	return reject(m, tok)
}
