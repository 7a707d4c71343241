package scenario

import (
	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/grouping"
	"shopfloor_go/internal/scan"
)

func ClusterBatchPicking() *engine.Scenario {
	states := map[string]*engine.State{
		"start":            clusterStart(),
		"manual_selection": clusterManualSelection(),
		"confirm_start":    clusterConfirmStart(),
		"scan_products": {
			Title:   "Pick products",
			Display: batchPlaceholder,
			Enter:   rememberBatch,
			Owns:    engine.ScopeAll,
			Lines:   linesAt("move_lines"),
			Context: batchScanContext,
			OnScan:  batchScanProducts,
			Actions: map[string]engine.Action{
				"cancel_line": engine.Do(func(m *engine.Machine, p engine.Payload) error {
					return m.Call("cancel_line", withBatch(m, engine.Params{"move_line_id": p.Int("id")}))
				}),
				"full_bin": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
					return m.Call("prepare_unload", withBatch(m, nil))
				}),
				"unselect": engine.Nav(func(m *engine.Machine, _ engine.Payload) error {
					m.Selection().ResetCursor()
					return nil
				}),
			},
			Render: renderBatchLines,
		},
	}
	clusterUnloadStates(states)
	return &engine.Scenario{
		Name:    "cluster_batch_picking",
		Title:   "Cluster batch picking",
		Initial: "start",
		Policy:  scan.QuantityPolicy{Ceiling: scan.DefaultCeiling, Zero: scan.ZeroResets},
		States:  states,
		Heading: batchHeading,
	}
}

func batchPlaceholder(m *engine.Machine) engine.DisplayInfo {
	sel := m.Selection()
	switch {
	case !sel.HasLocation() && !sel.HasProduct():
		return engine.DisplayInfo{Placeholder: "Scan a source location"}
	case !sel.HasProduct():
		return engine.DisplayInfo{Placeholder: "Scan a product"}
	default:
		return engine.DisplayInfo{Placeholder: "Scan quantity or destination location"}
	}
}

// batchScanContext narrows product matching to the selected location and
// lets destinations classify as locations once a product is pending.
func batchScanContext(m *engine.Machine, ctx *scan.Context) {
	sel := m.Selection()
	if sel.HasLocation() && !sel.HasProduct() {
		var here []domain.OperationLine
		for _, l := range ctx.Lines {
			if l.LocationSrc.ID == sel.Location.ID {
				here = append(here, l)
			}
		}
		ctx.Lines = here
	}
	if sel.HasProduct() {
		ctx.Locations = append(ctx.Locations, destinations(m.Lines())...)
	}
}

func isSource(lines []domain.OperationLine, loc domain.Location) bool {
	for _, l := range lines {
		if !l.Done && l.LocationSrc.ID == loc.ID {
			return true
		}
	}
	return false
}

func batchScanProducts(m *engine.Machine, raw string) error {
	sel := m.Selection()
	tok := m.Classify(raw)
	if tok.Kind == scan.Unrecognized && !(sel.HasProduct() && tok.Reason == scan.ReasonNoMatch) {
		return reject(m, tok)
	}

	if !sel.HasProduct() {
		switch tok.Kind {
		case scan.Location:
			sel.SelectLocation(*tok.Location)
			return nil
		case scan.Product:
			if !sel.HasLocation() {
				return m.Fail(engine.ErrContext, msgLocationFirst)
			}
			barcode, lineID := tok.Raw, tok.Line.ID
			return m.Call("scan_product",
				withBatch(m, engine.Params{"barcode": barcode, "move_line_id": lineID, "qty": 1}),
				func(m *engine.Machine, _ domain.Envelope) {
					m.Selection().SelectProduct(barcode, lineID)
				})
		}
		return reject(m, tok)
	}

	lines := m.Lines()
	line, open := lineByID(lines, sel.LastLineID)
	open = open && !line.Done
	switch tok.Kind {
	case scan.Quantity:
		if !open {
			return m.Fail(engine.ErrContext, msgAlreadyPicked)
		}
		params := withBatch(m, engine.Params{
			"barcode":      sel.LastScanned,
			"move_line_id": sel.LastLineID,
			"qty":          tok.Quantity,
		})
		if tok.IsZero() {
			return m.Call("set_quantity", params, func(m *engine.Machine, _ domain.Envelope) {
				m.Selection().ResetCursor()
			})
		}
		return m.Call("set_quantity", params)
	case scan.Product:
		return m.Fail(engine.ErrContext, msgAnotherProduct)
	case scan.Location:
		loc := *tok.Location
		if isSource(lines, loc) && !(open && line.AcceptsDestination(loc)) {
			sel.ResetCursor()
			sel.SelectLocation(loc)
			m.Notify(domain.InfoMessage("Source location changed to " + loc.Label() + "."))
			return nil
		}
	}
	// Any other barcode may be a destination or a bin package the
	// backend knows about.
	lineID := sel.LastLineID
	return m.Call("set_destination",
		withBatch(m, engine.Params{"barcode": tok.Raw, "move_line_id": lineID, "qty": qtyParam(line.QtyDone)}),
		func(m *engine.Machine, env domain.Envelope) {
			if env.Message == nil || env.Message.Type != domain.MessageSuccess {
				return
			}
			m.Selection().ResetCursor()
			m.Selection().MarkPicked(lineID)
		})
}

func renderBatchLines(m *engine.Machine, v *engine.View) {
	opts := m.GroupOptions()
	if id := m.Selection().LastLineID; id != 0 {
		opts.Match = grouping.MatchLineID
		opts.SelectedLineID = id
	}
	v.Groups = engine.LocationGroups(grouping.GroupByLocation(m.Lines(), opts))
	if loc := m.Selection().Location; loc != nil {
		fieldIf(v, "Source", loc.Label())
	}
	fieldIf(v, "Product", m.Selection().LastScanned)
}
