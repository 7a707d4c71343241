package scenario

import (
	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/grouping"
	"shopfloor_go/internal/scan"
)

func Checkout() *engine.Scenario {
	return &engine.Scenario{
		Name:    "checkout",
		Title:   "Checkout",
		Initial: "select_document",
		Policy:  scan.QuantityPolicy{Ceiling: scan.DefaultCeiling, Zero: scan.ZeroCounts},
		Heading: pickingHeading,
		States: map[string]*engine.State{
			"select_document":  checkoutSelectDocument(),
			"manual_selection": checkoutManualSelection(),
			"select_line": {
				Title:       "Select line",
				Placeholder: "Scan a package, product or lot",
				Enter:       enterPicking,
				Back:        "select_document",
				Lines:       pickingLines,
				OnScan: func(m *engine.Machine, raw string) error {
					text, err := lookup(m, raw)
					if err != nil {
						return err
					}
					return m.Call("scan_line", engine.Params{"picking_id": pickingID(m), "barcode": text})
				},
				Actions: map[string]engine.Action{
					"select": engine.Do(func(m *engine.Machine, p engine.Payload) error {
						params := engine.Params{"picking_id": pickingID(m)}
						if pkg := p.Int("package_id"); pkg != 0 {
							params["package_id"] = pkg
							return m.Call("select_line", params)
						}
						id := p.Int("id")
						if _, ok := lineByID(m.Lines(), id); !ok {
							return m.Fail(engine.ErrContext, msgUnknownRecord)
						}
						params["move_line_id"] = id
						return m.Call("select_line", params)
					}),
					"summary": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
						return m.Call("summary", engine.Params{"picking_id": pickingID(m)})
					}),
				},
			},
			"select_package": {
				Title:       "Pack lines",
				Placeholder: "Scan an existing package or a packaging",
				Enter:       primeChecked,
				Back:        "select_line",
				Lines:       linesAt("selected_move_lines"),
				OnScan: func(m *engine.Machine, raw string) error {
					text, err := lookup(m, raw)
					if err != nil {
						return err
					}
					return m.Call("scan_package_action", packParams(m, engine.Params{"barcode": text}))
				},
				Actions: map[string]engine.Action{
					"toggle":        engine.Do(toggleLine),
					"qty_edit":      engine.Nav(editQuantity),
					"new_pack":      packCall("new_package"),
					"existing_pack": packCall("list_dest_package"),
					"without_pack":  packCall("no_package"),
				},
				Render: renderChecked,
			},
			"change_quantity": {
				Title:       "Change quantity",
				Placeholder: "Type the quantity",
				Enter:       primeQuantity,
				Back:        "select_package",
				Lines:       linesAt("selected_move_lines"),
				OnScan: func(m *engine.Machine, raw string) error {
					policy := m.Scenario().Policy
					qty, _, ok := policy.Parse(scan.Normalize(raw))
					if !ok {
						return m.Fail(engine.ErrClassification, "Type a quantity.")
					}
					return setEditedQty(m, engine.Payload{"qty": qty})
				},
				Actions: map[string]engine.Action{
					"qty": engine.Do(setEditedQty),
					"confirm": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
						id := m.Data().Int("line_id")
						slot := m.Record(id, nil)
						var selected []int
						m.Data().Decode("selected_line_ids", &selected)
						return m.Call("set_custom_qty", engine.Params{
							"picking_id":        pickingID(m),
							"selected_line_ids": selected,
							"move_line_id":      id,
							"qty_done":          qtyParam(slot.Qty),
						})
					}),
				},
				Render: func(m *engine.Machine, v *engine.View) {
					id := m.Data().Int("line_id")
					line, ok := lineByID(m.Lines(), id)
					if !ok {
						return
					}
					fieldIf(v, "Product", line.Product.Label())
					if slot, ok := m.RecordOf("change_quantity", id); ok {
						fieldIf(v, "Quantity", slot.Qty.String()+" / "+line.Quantity.String())
					}
				},
			},
			"select_dest_package": {
				Title:       "Select destination package",
				Placeholder: "Scan a destination package",
				Back:        "select_package",
				OnScan: func(m *engine.Machine, raw string) error {
					text, err := lookup(m, raw)
					if err != nil {
						return err
					}
					return m.Call("scan_dest_package", destPackParams(m, engine.Params{"barcode": text}))
				},
				Actions: map[string]engine.Action{
					"select": engine.Do(func(m *engine.Machine, p engine.Payload) error {
						id := p.Int("id")
						if _, ok := findRecord(decodeRecords(m, "packages"), id); !ok {
							return m.Fail(engine.ErrContext, msgUnknownRecord)
						}
						return m.Call("set_dest_package", destPackParams(m, engine.Params{"package_id": id}))
					}),
				},
				Render: renderRecords("packages"),
			},
			"summary": {
				Title: "Summary",
				Enter: enterPicking,
				Lines: pickingLines,
				Actions: map[string]engine.Action{
					"continue": engine.Nav(func(m *engine.Machine, _ engine.Payload) error {
						m.CopyData("summary", "select_line")
						return m.StateTo("select_line")
					}),
					"mark_as_done": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
						return m.Call("done", engine.Params{"picking_id": pickingID(m)})
					}),
					"change_packaging": packageCall("list_packaging"),
					"remove_package":   packageCall("remove_package"),
				},
				Render: func(m *engine.Machine, v *engine.View) {
					opts := m.GroupOptions()
					opts.ByDestination = true
					opts.Picked = lineIDs(m.Lines())
					v.Groups = engine.LocationGroups(grouping.GroupByLocation(m.Lines(), opts))
				},
			},
			"change_packaging": {
				Title: "Change packaging",
				Back:  "summary",
				Actions: map[string]engine.Action{
					"select": engine.Do(func(m *engine.Machine, p engine.Payload) error {
						id := p.Int("id")
						if _, ok := findRecord(decodeRecords(m, "packagings"), id); !ok {
							return m.Fail(engine.ErrContext, msgUnknownRecord)
						}
						return m.Call("set_packaging", engine.Params{
							"picking_id":   pickingID(m),
							"package_id":   m.Data().Int("package"),
							"packaging_id": id,
						})
					}),
				},
				Render: renderRecords("packagings"),
			},
			"confirm_done": checkoutConfirmDone("summary"),
			"scan_products": {
				Title:       "Scan products",
				Placeholder: "Scan a product or a quantity",
				Enter:       enterPicking,
				Owns:        engine.ScopeProduct,
				Lines:       pickingLines,
				OnScan:      checkoutScanProducts,
				Actions: map[string]engine.Action{
					"ship_finished": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
						return m.Call("done", engine.Params{"picking_id": pickingID(m)})
					}),
					"ship_unfinished": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
						return m.Call("done", engine.Params{"picking_id": pickingID(m), "confirmation": true})
					}),
					"skip": engine.Do(skipDocument),
				},
			},
		},
	}
}

func pickingHeading(m *engine.Machine) string {
	return m.Shared().String("picking_name")
}

func enterPicking(m *engine.Machine) {
	var p domain.Picking
	if m.Data().Decode("picking", &p) && p.ID != 0 {
		rememberPicking(m, p.ID)
		_ = m.Shared().Set("picking_name", p.Name)
	}
}

func checkoutSelectDocument() *engine.State {
	return &engine.State{
		Title:       "Start checkout",
		Placeholder: "Scan a document, package or location",
		OnScan: func(m *engine.Machine, raw string) error {
			text, err := lookup(m, raw)
			if err != nil {
				return err
			}
			_ = m.Shared().Set("skip", 0)
			return m.Call("scan_document", engine.Params{"barcode": text})
		},
		Actions: map[string]engine.Action{
			"manual_selection": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
				return m.Call("list_stock_picking", nil)
			}),
		},
	}
}

func checkoutManualSelection() *engine.State {
	return &engine.State{
		Title:       "Select a transfer",
		Placeholder: "Scan a transfer name",
		Back:        "select_document",
		OnScan: func(m *engine.Machine, raw string) error {
			text, err := lookup(m, raw)
			if err != nil {
				return err
			}
			for _, r := range decodeRecords(m, "pickings") {
				if matchName(r.Name, text) {
					return m.Call("select", engine.Params{"picking_id": r.ID})
				}
			}
			return m.Fail(engine.ErrClassification, "No transfer matches "+text+".")
		},
		Actions: map[string]engine.Action{
			"select": engine.Do(func(m *engine.Machine, p engine.Payload) error {
				id := p.Int("id")
				if _, ok := findRecord(decodeRecords(m, "pickings"), id); !ok {
					return m.Fail(engine.ErrContext, msgUnknownRecord)
				}
				return m.Call("select", engine.Params{"picking_id": id})
			}),
		},
		Render: renderRecords("pickings"),
	}
}

func checkoutConfirmDone(back string) *engine.State {
	return &engine.State{
		Title: "Confirm done",
		Back:  back,
		Actions: map[string]engine.Action{
			"confirm": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
				return m.Call("done", engine.Params{"picking_id": pickingID(m), "confirmation": true})
			}),
		},
	}
}

// checkedLines are the selected_move_lines still ticked; unseen lines count as ticked.
func checkedLines(m *engine.Machine) []int {
	var ids []int
	for _, l := range m.Lines() {
		slot, ok := m.RecordOf(m.StateKey(), l.ID)
		if !ok || slot.Selected {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func primeChecked(m *engine.Machine) {
	enterPicking(m)
	for _, l := range m.Lines() {
		qty := l.QtyDone
		m.Record(l.ID, func() engine.RecordState { return engine.RecordState{Selected: true, Qty: qty} })
	}
}

func packParams(m *engine.Machine, extra engine.Params) engine.Params {
	p := engine.Params{"picking_id": pickingID(m), "selected_line_ids": checkedLines(m)}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func packCall(op string) engine.Action {
	return engine.Do(func(m *engine.Machine, _ engine.Payload) error {
		if len(checkedLines(m)) == 0 {
			return m.Fail(engine.ErrContext, "Select at least one line.")
		}
		return m.Call(op, packParams(m, nil))
	})
}

func toggleLine(m *engine.Machine, p engine.Payload) error {
	line, ok := lineByID(m.Lines(), p.Int("id"))
	if !ok {
		return m.Fail(engine.ErrContext, msgUnknownRecord)
	}
	slot := m.Record(line.ID, func() engine.RecordState {
		return engine.RecordState{Selected: true, Qty: line.QtyDone}
	})
	want := !slot.Selected
	slot.Selected = want
	params := packParams(m, engine.Params{"move_line_id": line.ID})
	slot.Selected = !want
	op := "reset_line_qty"
	if want {
		op = "set_line_qty"
	}
	return m.Call(op, params, func(m *engine.Machine, _ domain.Envelope) {
		m.Record(line.ID, nil).Selected = want
	})
}

func editQuantity(m *engine.Machine, p engine.Payload) error {
	id := p.Int("id")
	if _, ok := lineByID(m.Lines(), id); !ok {
		return m.Fail(engine.ErrContext, msgUnknownRecord)
	}
	selected := checkedLines(m)
	m.CopyData("select_package", "change_quantity")
	target := m.DataOf("change_quantity")
	_ = target.Set("line_id", id)
	_ = target.Set("selected_line_ids", selected)
	return m.StateTo("change_quantity")
}

func primeQuantity(m *engine.Machine) {
	id := m.Data().Int("line_id")
	line, ok := lineByID(m.Lines(), id)
	if !ok {
		return
	}
	m.Record(id, func() engine.RecordState { return engine.RecordState{Qty: line.QtyDone} })
}

func setEditedQty(m *engine.Machine, p engine.Payload) error {
	qty, ok := p.Decimal("qty")
	if !ok || qty.IsNegative() {
		return m.Fail(engine.ErrContext, "Invalid quantity.")
	}
	id := m.Data().Int("line_id")
	line, found := lineByID(m.Lines(), id)
	if !found {
		return m.Fail(engine.ErrContext, msgUnknownRecord)
	}
	if qty.GreaterThan(line.Quantity) {
		return m.Fail(engine.ErrContext, "Quantity cannot exceed "+line.Quantity.String()+".")
	}
	m.Record(id, nil).Qty = qty
	return nil
}

func renderChecked(m *engine.Machine, v *engine.View) {
	v.Groups = engine.LocationGroups(grouping.GroupByLocation(m.Lines(), grouping.Options{KeepEmpty: true}))
	checked := map[int]bool{}
	for _, id := range checkedLines(m) {
		checked[id] = true
	}
	for gi := range v.Groups {
		for li := range v.Groups[gi].Lines {
			l := &v.Groups[gi].Lines[li]
			l.Selected = checked[l.ID]
			if slot, ok := m.RecordOf(m.StateKey(), l.ID); ok {
				l.QtyDone = slot.Qty.String()
			}
		}
	}
}

func destPackParams(m *engine.Machine, extra engine.Params) engine.Params {
	var lines []domain.OperationLine
	m.Data().Decode("selected_move_lines", &lines)
	p := engine.Params{"picking_id": pickingID(m), "selected_line_ids": lineIDs(lines)}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func packageCall(op string) engine.Action {
	return engine.Do(func(m *engine.Machine, p engine.Payload) error {
		id := p.Int("id")
		if id == 0 {
			return m.Fail(engine.ErrContext, "Select a package.")
		}
		return m.Call(op, engine.Params{"picking_id": pickingID(m), "package_id": id})
	})
}

func checkoutScanProducts(m *engine.Machine, raw string) error {
	sel := m.Selection()
	tok := m.Classify(raw)
	switch tok.Kind {
	case scan.Quantity:
		return m.Call("scan_product", engine.Params{
			"barcode":    sel.LastScanned,
			"picking_id": pickingID(m),
			"qty":        tok.Quantity,
			"setting":    true,
		}, func(m *engine.Machine, _ domain.Envelope) {
			m.Selection().Clear(engine.ScopeProduct)
		})
	case scan.Product:
		barcode, lineID := tok.Raw, tok.Line.ID
		return m.Call("scan_product", engine.Params{
			"barcode":    barcode,
			"picking_id": pickingID(m),
			"qty":        1,
		}, func(m *engine.Machine, _ domain.Envelope) {
			m.Selection().SelectProduct(barcode, lineID)
		})
	case scan.Location:
		return m.Fail(engine.ErrContext, "Scan a product.")
	}
	return reject(m, tok)
}

// skipDocument moves on to the next transfer at the same source location.
func skipDocument(m *engine.Machine, _ engine.Payload) error {
	lines := m.Lines()
	if len(lines) == 0 {
		return m.Fail(engine.ErrContext, "Nothing to skip.")
	}
	skip := m.Shared().Int("skip") + 1
	barcode := lines[0].LocationSrc.Barcode
	return m.Call("scan_document", engine.Params{"barcode": barcode, "skip": skip},
		func(m *engine.Machine, _ domain.Envelope) {
			_ = m.Shared().Set("skip", skip)
		})
}
