package scenario

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/grouping"
	"shopfloor_go/internal/scan"
)

func ClusterPicking() *engine.Scenario {
	states := map[string]*engine.State{
		"start":            clusterStart(),
		"manual_selection": clusterManualSelection(),
		"confirm_start":    clusterConfirmStart(),
		"scan_products": {
			Title:   "Scan and pack",
			Display: batchPlaceholder,
			Enter:   rememberBatch,
			Owns:    engine.ScopeAll,
			Lines:   batchLines,
			Context: func(m *engine.Machine, ctx *scan.Context) {
				if m.Selection().HasProduct() {
					ctx.Locations = append(ctx.Locations, destinations(ctx.Lines)...)
				}
			},
			OnScan: scanAndPack,
			Actions: map[string]engine.Action{
				"cancel_line": engine.Do(func(m *engine.Machine, p engine.Payload) error {
					return m.Call("cancel_line", withBatch(m, engine.Params{"move_line_id": p.Int("id")}))
				}),
				"unselect": engine.Nav(func(m *engine.Machine, _ engine.Payload) error {
					m.Selection().ResetCursor()
					return nil
				}),
			},
			Render: func(m *engine.Machine, v *engine.View) {
				opts := m.GroupOptions()
				opts.Match = grouping.MatchLineID
				opts.SelectedLineID = m.Selection().LastLineID
				v.Groups = engine.DestinationGroups(grouping.GroupProductsByDestination(m.Lines(), opts))
				if len(v.Groups) == 0 {
					v.Groups = engine.ProductGroups(grouping.GroupByProduct(m.Lines(), opts))
				}
			},
		},
		"start_line": {
			Title:       "Pick line",
			Placeholder: "Scan location, package, product or lot",
			Enter:       rememberLineBatch,
			OnScan:      lineScan("scan_line"),
			Actions: map[string]engine.Action{
				"full_bin": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
					return m.Call("prepare_unload", withBatch(m, nil))
				}),
				"skip_line": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
					return m.Call("skip_line", withBatch(m, engine.Params{"move_line_id": m.Data().Int("id")}))
				}),
				"stock_out":          copyTo("stock_issue"),
				"change_pack_or_lot": copyTo("change_pack_lot"),
			},
			Render: renderCurrentLine,
		},
		"scan_destination": {
			Title:       "Set destination",
			Placeholder: "Scan destination bin",
			Enter:       primeDestinationQty,
			OnScan: func(m *engine.Machine, raw string) error {
				text, err := lookup(m, raw)
				if err != nil {
					return err
				}
				line := currentLine(m)
				qty := line.Quantity
				if slot, ok := m.RecordOf("scan_destination", line.ID); ok {
					qty = slot.Qty
				}
				return m.Call("scan_destination", withBatch(m, engine.Params{
					"move_line_id": line.ID,
					"barcode":      text,
					"quantity":     qtyParam(qty),
				}))
			},
			Actions: map[string]engine.Action{
				"qty": engine.Do(func(m *engine.Machine, p engine.Payload) error {
					qty, ok := p.Decimal("qty")
					if !ok || qty.IsNegative() {
						return m.Fail(engine.ErrContext, "Invalid quantity.")
					}
					line := currentLine(m)
					m.Record(line.ID, nil).Qty = qty
					return nil
				}),
				"full_bin": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
					return m.Call("prepare_unload", withBatch(m, nil))
				}),
			},
			Render: renderCurrentLine,
		},
		"zero_check": {
			Title: "Is the location empty?",
			Actions: map[string]engine.Action{
				"confirm_zero":     zeroAnswer(true),
				"confirm_not_zero": zeroAnswer(false),
			},
			Render: renderCurrentLine,
		},
		"stock_issue": {
			Title: "Declare stock out",
			Back:  "start_line",
			Actions: map[string]engine.Action{
				"confirm": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
					return m.Call("stock_issue", withBatch(m, engine.Params{"move_line_id": m.Data().Int("id")}))
				}),
			},
			Render: renderCurrentLine,
		},
		"change_pack_lot": {
			Title:       "Change package or lot",
			Placeholder: "Scan a package or a lot",
			Back:        "start_line",
			OnScan:      lineScan("change_pack_lot"),
			Render:      renderCurrentLine,
		},
	}
	clusterUnloadStates(states)
	return &engine.Scenario{
		Name:    "cluster_picking",
		Title:   "Cluster picking",
		Initial: "start",
		Policy:  scan.QuantityPolicy{Ceiling: scan.DefaultCeiling, Zero: scan.ZeroResets},
		States:  states,
		Heading: batchHeading,
	}
}

// batchLines reads lines nested per picking, or flat move_lines.
func batchLines(m *engine.Machine) []domain.OperationLine {
	var batch domain.PickingBatch
	m.Data().Decode("pickings", &batch.Pickings)
	m.Data().Decode("move_lines", &batch.MoveLines)
	return batch.Lines()
}

// currentLine decodes a state whose data is a single move line.
func currentLine(m *engine.Machine) domain.OperationLine {
	var line domain.OperationLine
	raw, err := json.Marshal(m.Data())
	if err == nil {
		_ = json.Unmarshal(raw, &line)
	}
	return line
}

func rememberLineBatch(m *engine.Machine) {
	if id := m.Data().Int("batch"); id != 0 {
		_ = m.Shared().Set("batch_id", id)
	}
}

func lineScan(op string) func(m *engine.Machine, raw string) error {
	return func(m *engine.Machine, raw string) error {
		text, err := lookup(m, raw)
		if err != nil {
			return err
		}
		return m.Call(op, withBatch(m, engine.Params{"move_line_id": m.Data().Int("id"), "barcode": text}))
	}
}

func copyTo(state string) engine.Action {
	return engine.Nav(func(m *engine.Machine, _ engine.Payload) error {
		m.CopyData(m.StateKey(), state)
		return m.StateTo(state)
	})
}

func zeroAnswer(zero bool) engine.Action {
	return engine.Do(func(m *engine.Machine, _ engine.Payload) error {
		return m.Call("is_zero", withBatch(m, engine.Params{"move_line_id": m.Data().Int("id"), "zero": zero}))
	})
}

func primeDestinationQty(m *engine.Machine) {
	line := currentLine(m)
	if line.ID == 0 {
		return
	}
	qty := line.Quantity
	start := m.DataOf("start_line")
	var startQty decimal.Decimal
	if start.Int("id") == line.ID && start.Decode("quantity", &startQty) {
		qty = startQty
	}
	m.Record(line.ID, func() engine.RecordState { return engine.RecordState{Qty: qty} })
}

func renderCurrentLine(m *engine.Machine, v *engine.View) {
	line := currentLine(m)
	if line.ID == 0 {
		return
	}
	fieldIf(v, "Product", line.Product.Label())
	fieldIf(v, "Location", line.LocationSrc.Label())
	qty := line.Quantity
	if slot, ok := m.RecordOf(m.StateKey(), line.ID); ok {
		qty = slot.Qty
	}
	fieldIf(v, "Quantity", qty.String())
	if line.Lot != nil {
		fieldIf(v, "Lot", line.Lot.Name)
	}
	if line.PackageSrc != nil {
		fieldIf(v, "Package", line.PackageSrc.Name)
	}
}

func scanAndPack(m *engine.Machine, raw string) error {
	sel := m.Selection()
	tok := m.Classify(raw)

	switch tok.Kind {
	case scan.Quantity:
		if pending, ok := lineByID(m.Lines(), sel.LastLineID); !ok || pending.Done {
			return m.Fail(engine.ErrContext, msgAlreadyPicked)
		}
		params := withBatch(m, engine.Params{
			"barcode":      sel.LastScanned,
			"move_line_id": sel.LastLineID,
			"qty":          tok.Quantity,
		})
		if tok.IsZero() {
			return m.Call("set_quantity_scan_and_pack", params, func(m *engine.Machine, _ domain.Envelope) {
				m.Selection().ResetCursor()
			})
		}
		return m.Call("set_quantity_scan_and_pack", params)
	case scan.Location:
		if !sel.HasProduct() {
			sel.SelectLocation(*tok.Location)
			return nil
		}
		return scanPackDestination(m, tok.Raw)
	case scan.Product:
		line := *tok.Line
		if line.Done {
			return m.Fail(engine.ErrContext, msgNoMoreProduct)
		}
		if sel.HasProduct() && sel.LastScanned != tok.Raw && !line.Product.MatchesBarcode(sel.LastScanned) {
			return m.Fail(engine.ErrContext, msgDestinationFirst)
		}
		if sel.HasProduct() {
			// Same product again: keep adding to the pending line.
			if pending, ok := lineByID(m.Lines(), sel.LastLineID); ok && !pending.Done {
				line = pending
			}
		}
		barcode := tok.Raw
		return m.Call("scan_product_scan_and_pack",
			withBatch(m, engine.Params{"barcode": barcode, "move_line_id": line.ID, "qty": 1}),
			func(m *engine.Machine, _ domain.Envelope) {
				m.Selection().SelectProduct(barcode, line.ID)
			})
	}
	if sel.HasProduct() && tok.Reason == scan.ReasonNoMatch {
		// Unknown to the screen: a destination or bin package the backend
		// may accept.
		return scanPackDestination(m, tok.Raw)
	}
	return reject(m, tok)
}

func scanPackDestination(m *engine.Machine, barcode string) error {
	lineID := m.Selection().LastLineID
	line, _ := lineByID(m.Lines(), lineID)
	return m.Call("scan_location_scan_and_pack",
		withBatch(m, engine.Params{"barcode": barcode, "move_line_id": lineID, "qty": qtyParam(line.QtyDone)}),
		func(m *engine.Machine, _ domain.Envelope) {
			m.Selection().ResetCursor()
			m.Selection().MarkPicked(lineID)
		})
}
