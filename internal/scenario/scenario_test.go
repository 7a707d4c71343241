package scenario

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
)

func payload(t *testing.T, kv ...any) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	for i := 0; i+1 < len(kv); i += 2 {
		raw, err := json.Marshal(kv[i+1])
		require.NoError(t, err)
		out[kv[i].(string)] = raw
	}
	return out
}

func start(t *testing.T, name string) *engine.Machine {
	t.Helper()
	sc, err := Lookup(name)
	require.NoError(t, err)
	m, err := engine.New(sc)
	require.NoError(t, err)
	m.Start()
	return m
}

func expectCall(t *testing.T, m *engine.Machine, op string) engine.Call {
	t.Helper()
	call, ok := m.TakeCall()
	require.True(t, ok, "expected %s call", op)
	require.Equal(t, op, call.Operation)
	return call
}

func answer(t *testing.T, m *engine.Machine, call engine.Call, env domain.Envelope) engine.Outcome {
	t.Helper()
	return m.Resolve(engine.Result{Ticket: call.Ticket, Envelope: env})
}

func noCall(t *testing.T, m *engine.Machine) {
	t.Helper()
	_, ok := m.TakeCall()
	assert.False(t, ok, "no backend call expected")
}

var (
	locA = domain.Location{ID: 1, Name: "Shelf A", Barcode: "LOC-A"}
	locB = domain.Location{ID: 2, Name: "Out B", Barcode: "LOC-B"}
	locC = domain.Location{ID: 3, Name: "Shelf C", Barcode: "LOC-C"}
)

func moveLine(id int, src domain.Location, dest *domain.Location, barcode string, qty, done int64) domain.OperationLine {
	return domain.OperationLine{
		ID:           id,
		Product:      domain.Product{ID: id * 10, Name: "Product " + barcode, Barcode: barcode},
		Quantity:     decimal.NewFromInt(qty),
		QtyDone:      decimal.NewFromInt(done),
		LocationSrc:  src,
		LocationDest: dest,
	}
}

func TestRegistryTablesAreValid(t *testing.T) {
	require.Len(t, Names(), 8)
	for _, name := range Names() {
		sc, err := Lookup(name)
		require.NoError(t, err, name)
		_, err = engine.New(sc)
		assert.NoError(t, err, name)
		assert.Equal(t, name, sc.Name)
	}
	_, err := Lookup("nope")
	assert.Error(t, err)
}

func batchAtScanProducts(t *testing.T, lines []domain.OperationLine) *engine.Machine {
	t.Helper()
	m := start(t, "cluster_batch_picking")
	require.NoError(t, m.Action("get_work", nil))
	call := expectCall(t, m, "find_batch")
	require.Equal(t, engine.OutcomeApplied, answer(t, m, call, domain.Envelope{
		NextState: "scan_products",
		Data:      payload(t, "id", 5, "name", "BATCH/5", "move_lines", lines),
	}))
	require.Equal(t, "scan_products", m.StateKey())
	return m
}

func TestClusterBatchPickingEndToEnd(t *testing.T) {
	line := moveLine(7, locA, &locB, "8412345", 3, 0)
	other := moveLine(8, locC, &locB, "555", 1, 0)
	m := batchAtScanProducts(t, []domain.OperationLine{line, other})
	assert.True(t, m.Selection().Empty())
	assert.Equal(t, "Scan a source location", m.View().Placeholder)
	assert.Equal(t, "BATCH/5 > Pick products", m.View().Title)

	require.NoError(t, m.Scan("LOC-A"))
	noCall(t, m)
	require.NotNil(t, m.Selection().Location)
	assert.Equal(t, "LOC-A", m.Selection().Location.Barcode)

	require.NoError(t, m.Scan("8412345"))
	call := expectCall(t, m, "scan_product")
	assert.Equal(t, "8412345", call.Params["barcode"])
	assert.Equal(t, 1, call.Params["qty"])
	assert.Equal(t, 7, call.Params["move_line_id"])
	assert.Equal(t, 5, call.Params["picking_batch_id"])
	line.QtyDone = decimal.NewFromInt(1)
	answer(t, m, call, domain.Envelope{NextState: "scan_products", Data: payload(t, "move_lines", []domain.OperationLine{line, other})})
	assert.Equal(t, "8412345", m.Selection().LastScanned)

	require.NoError(t, m.Scan("3"))
	call = expectCall(t, m, "set_quantity")
	assert.Equal(t, 3, call.Params["qty"])
	assert.Equal(t, "8412345", call.Params["barcode"])
	line.QtyDone = decimal.NewFromInt(3)
	answer(t, m, call, domain.Envelope{NextState: "scan_products", Data: payload(t, "move_lines", []domain.OperationLine{line, other})})

	require.NoError(t, m.Scan("LOC-B"))
	call = expectCall(t, m, "set_destination")
	assert.Equal(t, "LOC-B", call.Params["barcode"])
	assert.Equal(t, json.Number("3"), call.Params["qty"])
	line.Done = true
	out := answer(t, m, call, domain.Envelope{
		NextState: "scan_products",
		Data:      payload(t, "move_lines", []domain.OperationLine{line, other}),
		Message:   &domain.Message{Type: domain.MessageSuccess, Body: "Line picked"},
	})
	require.Equal(t, engine.OutcomeApplied, out)

	sel := m.Selection()
	assert.Nil(t, sel.Location)
	assert.Empty(t, sel.LastScanned)
	assert.Equal(t, []int{7}, sel.Picked)

	v := m.View()
	var shown []int
	for _, g := range v.Groups {
		for _, l := range g.Lines {
			shown = append(shown, l.ID)
		}
	}
	assert.ElementsMatch(t, []int{7, 8}, shown, "just picked line stays visible")
	assert.Equal(t, "Line picked", v.Message.Body)
}

func TestClusterBatchPickingContextErrors(t *testing.T) {
	line := moveLine(7, locA, &locB, "8412345", 3, 0)
	second := moveLine(9, locA, &locB, "BC-777", 2, 0)
	m := batchAtScanProducts(t, []domain.OperationLine{line, second})

	err := m.Scan("8412345")
	assert.True(t, engine.IsKind(err, engine.ErrContext))
	noCall(t, m)

	err = m.Scan("4")
	assert.True(t, engine.IsKind(err, engine.ErrContext), "quantity without product")

	require.NoError(t, m.Scan("LOC-A"))
	require.NoError(t, m.Scan("8412345"))
	call := expectCall(t, m, "scan_product")
	answer(t, m, call, domain.Envelope{NextState: "scan_products"})

	err = m.Scan("BC-777")
	assert.True(t, engine.IsKind(err, engine.ErrContext))
	assert.Equal(t, msgAnotherProduct, m.Message().Body)

	assert.Equal(t, "8412345", m.Selection().LastScanned, "errors keep the cursor")
}

func TestClusterBatchPickingUnknownDestinationGoesToBackend(t *testing.T) {
	line := moveLine(7, locA, &locB, "8412345", 3, 0)
	m := batchAtScanProducts(t, []domain.OperationLine{line})
	require.NoError(t, m.Scan("LOC-A"))
	require.NoError(t, m.Scan("8412345"))
	answer(t, m, expectCall(t, m, "scan_product"), domain.Envelope{NextState: "scan_products"})

	require.NoError(t, m.Scan(" BIN-PACK-9 "))
	call := expectCall(t, m, "set_destination")
	assert.Equal(t, "BIN-PACK-9", call.Params["barcode"])
	assert.Equal(t, 7, call.Params["move_line_id"])
	answer(t, m, call, domain.Envelope{
		NextState: "scan_products",
		Message:   &domain.Message{Type: domain.MessageSuccess, Body: "Line picked"},
	})
	assert.False(t, m.Selection().HasProduct())
	assert.Equal(t, []int{7}, m.Selection().Picked)

	err := m.Scan("BIN-PACK-9")
	assert.True(t, engine.IsKind(err, engine.ErrClassification), "without a product nothing is sent")
	noCall(t, m)
}

func TestClusterBatchPickingPartialDestinationKeepsCursor(t *testing.T) {
	line := moveLine(7, locA, &locB, "8412345", 3, 0)
	m := batchAtScanProducts(t, []domain.OperationLine{line})
	require.NoError(t, m.Scan("LOC-A"))
	require.NoError(t, m.Scan("8412345"))
	answer(t, m, expectCall(t, m, "scan_product"), domain.Envelope{NextState: "scan_products"})

	require.NoError(t, m.Scan("LOC-B"))
	out := answer(t, m, expectCall(t, m, "set_destination"), domain.Envelope{
		NextState: "scan_products",
		Message:   domain.InfoMessage("Partial, line split"),
	})
	require.Equal(t, engine.OutcomeApplied, out)
	sel := m.Selection()
	require.NotNil(t, sel.Location)
	assert.Equal(t, "8412345", sel.LastScanned)
	assert.Empty(t, sel.Picked)

	require.NoError(t, m.Scan("LOC-B"))
	out = answer(t, m, expectCall(t, m, "set_destination"), domain.Envelope{NextState: "scan_products"})
	require.Equal(t, engine.OutcomeApplied, out)
	assert.Equal(t, "8412345", m.Selection().LastScanned, "no message is not a success")
}

func TestClusterBatchPickingQuantityOnPickedLineRefused(t *testing.T) {
	line := moveLine(7, locA, &locB, "8412345", 3, 0)
	other := moveLine(8, locA, &locB, "BC-777", 1, 0)
	m := batchAtScanProducts(t, []domain.OperationLine{line, other})
	require.NoError(t, m.Scan("LOC-A"))
	require.NoError(t, m.Scan("8412345"))
	line.Done = true
	answer(t, m, expectCall(t, m, "scan_product"), domain.Envelope{
		NextState: "scan_products",
		Data:      payload(t, "move_lines", []domain.OperationLine{line, other}),
	})

	err := m.Scan("2")
	assert.True(t, engine.IsKind(err, engine.ErrContext))
	assert.Equal(t, msgAlreadyPicked, m.Message().Body)
	noCall(t, m)
	assert.Equal(t, "8412345", m.Selection().LastScanned)
}

func TestClusterBatchPickingRejectedDestinationKeepsCursor(t *testing.T) {
	line := moveLine(7, locA, &locB, "8412345", 3, 0)
	m := batchAtScanProducts(t, []domain.OperationLine{line})
	require.NoError(t, m.Scan("LOC-A"))
	require.NoError(t, m.Scan("8412345"))
	answer(t, m, expectCall(t, m, "scan_product"), domain.Envelope{NextState: "scan_products"})

	require.NoError(t, m.Scan("LOC-B"))
	out := answer(t, m, expectCall(t, m, "set_destination"), domain.Envelope{
		NextState: "scan_products",
		Message:   domain.ErrorMessage("Location not allowed"),
	})
	assert.Equal(t, engine.OutcomeRejected, out)
	assert.Equal(t, "8412345", m.Selection().LastScanned)
	require.NotNil(t, m.Selection().Location)
	assert.Empty(t, m.Selection().Picked)
}

func TestClusterBatchPickingZeroResetsCursor(t *testing.T) {
	line := moveLine(7, locA, &locB, "8412345", 3, 0)
	m := batchAtScanProducts(t, []domain.OperationLine{line})
	require.NoError(t, m.Scan("LOC-A"))
	require.NoError(t, m.Scan("8412345"))
	answer(t, m, expectCall(t, m, "scan_product"), domain.Envelope{NextState: "scan_products"})

	require.NoError(t, m.Scan("0"))
	call := expectCall(t, m, "set_quantity")
	assert.Equal(t, 0, call.Params["qty"])
	answer(t, m, call, domain.Envelope{NextState: "scan_products"})
	assert.Empty(t, m.Selection().LastScanned)
	assert.Nil(t, m.Selection().Location)
}

func TestClusterBatchPickingUnloadLeavesSelectionBehind(t *testing.T) {
	line := moveLine(7, locA, &locB, "8412345", 3, 0)
	m := batchAtScanProducts(t, []domain.OperationLine{line})
	require.NoError(t, m.Scan("LOC-A"))

	require.NoError(t, m.Action("full_bin", nil))
	answer(t, m, expectCall(t, m, "prepare_unload"), domain.Envelope{NextState: "unload_all", Data: payload(t, "location_dest", locB)})
	assert.Equal(t, "unload_all", m.StateKey())
	assert.True(t, m.Selection().Empty())

	require.NoError(t, m.Scan("LOC-B"))
	call := expectCall(t, m, "set_destination_all")
	assert.Equal(t, false, call.Params["confirmation"])
	answer(t, m, call, domain.Envelope{NextState: "confirm_unload_all"})

	require.NoError(t, m.Action("confirm", nil))
	call = expectCall(t, m, "set_destination_all")
	assert.Equal(t, "LOC-B", call.Params["barcode"])
	assert.Equal(t, true, call.Params["confirmation"])
}

func TestClusterPickingScanAndPack(t *testing.T) {
	m := start(t, "cluster_picking")
	require.NoError(t, m.Action("manual_selection", nil))
	answer(t, m, expectCall(t, m, "list_batch"), domain.Envelope{
		NextState: "manual_selection",
		Data:      payload(t, "records", []map[string]any{{"id": 4, "name": "BATCH/4"}}),
	})
	require.NoError(t, m.Action("select", engine.Payload{"id": 4}))
	call := expectCall(t, m, "select")
	assert.Equal(t, 4, call.Params["picking_batch_id"])
	answer(t, m, call, domain.Envelope{NextState: "confirm_start", Data: payload(t, "id", 4, "name", "BATCH/4")})

	require.NoError(t, m.Action("confirm", nil))
	line := moveLine(7, locA, &locB, "8412345", 2, 0)
	other := moveLine(8, locA, &locB, "BC-999", 1, 0)
	pickings := []domain.Picking{{ID: 40, Name: "OUT/40", MoveLines: []domain.OperationLine{line, other}}}
	answer(t, m, expectCall(t, m, "confirm_start"), domain.Envelope{NextState: "scan_products", Data: payload(t, "pickings", pickings)})
	require.Equal(t, "scan_products", m.StateKey())

	require.NoError(t, m.Scan("8412345"))
	call = expectCall(t, m, "scan_product_scan_and_pack")
	assert.Equal(t, 4, call.Params["picking_batch_id"])
	answer(t, m, call, domain.Envelope{NextState: "scan_products"})

	err := m.Scan("BC-999")
	assert.Equal(t, msgDestinationFirst, m.Message().Body)
	assert.True(t, engine.IsKind(err, engine.ErrContext))

	require.NoError(t, m.Scan("8412345"))
	call = expectCall(t, m, "scan_product_scan_and_pack")
	assert.Equal(t, 7, call.Params["move_line_id"])
	answer(t, m, call, domain.Envelope{NextState: "scan_products"})

	require.NoError(t, m.Scan("LOC-B"))
	call = expectCall(t, m, "scan_location_scan_and_pack")
	assert.Equal(t, 7, call.Params["move_line_id"])
	answer(t, m, call, domain.Envelope{NextState: "scan_products"})
	assert.False(t, m.Selection().HasProduct())
	assert.Equal(t, []int{7}, m.Selection().Picked)

	require.NoError(t, m.Scan("BC-999"))
	call = expectCall(t, m, "scan_product_scan_and_pack")
	assert.Equal(t, 8, call.Params["move_line_id"])
	answer(t, m, call, domain.Envelope{NextState: "scan_products"})

	require.NoError(t, m.Scan("BIN-PACK-9"))
	call = expectCall(t, m, "scan_location_scan_and_pack")
	assert.Equal(t, "BIN-PACK-9", call.Params["barcode"])
	assert.Equal(t, 8, call.Params["move_line_id"])
}

func TestClusterPickingQuantityOnPickedLineRefused(t *testing.T) {
	m := start(t, "cluster_picking")
	require.NoError(t, m.Action("get_work", nil))
	line := moveLine(7, locA, &locB, "8412345", 2, 0)
	answer(t, m, expectCall(t, m, "find_batch"), domain.Envelope{NextState: "confirm_start", Data: payload(t, "id", 4, "name", "BATCH/4")})
	require.NoError(t, m.Action("confirm", nil))
	pickings := []domain.Picking{{ID: 40, Name: "OUT/40", MoveLines: []domain.OperationLine{line}}}
	answer(t, m, expectCall(t, m, "confirm_start"), domain.Envelope{NextState: "scan_products", Data: payload(t, "pickings", pickings)})

	require.NoError(t, m.Scan("8412345"))
	line.Done = true
	pickings[0].MoveLines = []domain.OperationLine{line}
	answer(t, m, expectCall(t, m, "scan_product_scan_and_pack"), domain.Envelope{NextState: "scan_products", Data: payload(t, "pickings", pickings)})

	err := m.Scan("2")
	assert.True(t, engine.IsKind(err, engine.ErrContext))
	assert.Equal(t, msgAlreadyPicked, m.Message().Body)
	noCall(t, m)
}

func TestClusterPickingStartLineStockOutCopiesData(t *testing.T) {
	m := start(t, "cluster_picking")
	require.NoError(t, m.Action("get_work", nil))
	line := moveLine(7, locA, &locB, "8412345", 2, 0)
	answer(t, m, expectCall(t, m, "find_batch"), domain.Envelope{NextState: "confirm_start", Data: payload(t, "id", 4)})
	require.NoError(t, m.Action("confirm", nil))
	raw, _ := json.Marshal(line)
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &data))
	answer(t, m, expectCall(t, m, "confirm_start"), domain.Envelope{NextState: "start_line", Data: data})

	require.NoError(t, m.Action("stock_out", nil))
	assert.Equal(t, "stock_issue", m.StateKey())
	require.NoError(t, m.Action("confirm", nil))
	call := expectCall(t, m, "stock_issue")
	assert.Equal(t, 7, call.Params["move_line_id"])
	assert.Equal(t, 4, call.Params["picking_batch_id"])

	require.NoError(t, m.Action("back", nil), "navigation while busy")
	assert.Equal(t, "start_line", m.StateKey())
	noCall(t, m)
}

func TestClusterPickingDestinationQtySlot(t *testing.T) {
	m := start(t, "cluster_picking")
	require.NoError(t, m.Action("get_work", nil))
	line := moveLine(7, locA, &locB, "8412345", 5, 0)
	raw, _ := json.Marshal(line)
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &data))
	answer(t, m, expectCall(t, m, "find_batch"), domain.Envelope{NextState: "scan_destination", Data: data})

	require.NoError(t, m.Action("qty", engine.Payload{"qty": 3}))
	require.NoError(t, m.Scan("BIN-1"))
	call := expectCall(t, m, "scan_destination")
	assert.Equal(t, json.Number("3"), call.Params["quantity"])
	assert.Equal(t, "BIN-1", call.Params["barcode"])
}

func TestCheckoutScanAndPackQuantityRules(t *testing.T) {
	m := start(t, "checkout_scan_and_pack")
	require.NoError(t, m.Scan("OUT/1"))
	call := expectCall(t, m, "scan_document")
	assert.Equal(t, "OUT/1", call.Params["barcode"])

	line := moveLine(7, locA, nil, "111", 2, 0)
	picking := domain.Picking{ID: 33, Name: "OUT/1", MoveLines: []domain.OperationLine{line}}
	answer(t, m, call, domain.Envelope{NextState: "scan_products", Data: payload(t, "picking", picking)})
	assert.Equal(t, "OUT/1 > Scan and pack", m.View().Title)

	require.NoError(t, m.Scan("111"))
	call = expectCall(t, m, "scan_product")
	assert.Equal(t, 33, call.Params["picking_id"])
	answer(t, m, call, domain.Envelope{NextState: "scan_products"})

	require.NoError(t, m.Scan("2"))
	call = expectCall(t, m, "set_quantity")
	assert.Equal(t, 7, call.Params["move_line_id"])
	line.Done = true
	picking.MoveLines = []domain.OperationLine{line}
	answer(t, m, call, domain.Envelope{NextState: "scan_products", Data: payload(t, "picking", picking)})

	err := m.Scan("1")
	assert.True(t, engine.IsKind(err, engine.ErrContext))
	assert.False(t, m.Selection().HasProduct(), "unmatched quantity drops the product")
	noCall(t, m)
}

func TestCheckoutScanAndPackRejectedScanDoesNotSelect(t *testing.T) {
	m := start(t, "checkout_scan_and_pack")
	require.NoError(t, m.Scan("OUT/1"))
	picking := domain.Picking{ID: 33, MoveLines: []domain.OperationLine{moveLine(7, locA, nil, "111", 2, 0)}}
	answer(t, m, expectCall(t, m, "scan_document"), domain.Envelope{NextState: "scan_products", Data: payload(t, "picking", picking)})

	require.NoError(t, m.Scan("111"))
	answer(t, m, expectCall(t, m, "scan_product"), domain.Envelope{Message: domain.ErrorMessage("Product already packed")})
	assert.False(t, m.Selection().HasProduct())
}

func TestCheckoutSelectPackageSlotsPerLine(t *testing.T) {
	m := start(t, "checkout")
	require.NoError(t, m.Scan("OUT/9"))
	a, b := moveLine(1, locA, nil, "A1", 2, 2), moveLine(2, locA, nil, "B2", 3, 3)
	picking := domain.Picking{ID: 9, Name: "OUT/9", MoveLines: []domain.OperationLine{a, b}}
	answer(t, m, expectCall(t, m, "scan_document"), domain.Envelope{
		NextState: "select_package",
		Data:      payload(t, "picking", picking, "selected_move_lines", []domain.OperationLine{a, b}),
	})
	require.Equal(t, "select_package", m.StateKey())

	require.NoError(t, m.Action("toggle", engine.Payload{"id": 2}))
	call := expectCall(t, m, "reset_line_qty")
	assert.Equal(t, []int{1}, call.Params["selected_line_ids"])
	assert.Equal(t, 2, call.Params["move_line_id"])
	answer(t, m, call, domain.Envelope{NextState: "select_package"})

	slotA, _ := m.RecordOf("select_package", 1)
	slotB, _ := m.RecordOf("select_package", 2)
	assert.True(t, slotA.Selected)
	assert.False(t, slotB.Selected)

	require.NoError(t, m.Action("new_pack", nil))
	call = expectCall(t, m, "new_package")
	assert.Equal(t, []int{1}, call.Params["selected_line_ids"])
	assert.Equal(t, 9, call.Params["picking_id"])
	answer(t, m, call, domain.Envelope{
		NextState: "select_package",
		Data:      payload(t, "selected_move_lines", []domain.OperationLine{a}),
	})
	_, kept := m.RecordOf("select_package", 2)
	assert.False(t, kept, "slot of a record no longer shown is discarded")
}

func TestCheckoutChangeQuantity(t *testing.T) {
	m := start(t, "checkout")
	require.NoError(t, m.Scan("OUT/9"))
	a := moveLine(1, locA, nil, "A1", 5, 5)
	picking := domain.Picking{ID: 9, MoveLines: []domain.OperationLine{a}}
	answer(t, m, expectCall(t, m, "scan_document"), domain.Envelope{
		NextState: "select_package",
		Data:      payload(t, "picking", picking, "selected_move_lines", []domain.OperationLine{a}),
	})

	require.NoError(t, m.Action("qty_edit", engine.Payload{"id": 1}))
	assert.Equal(t, "change_quantity", m.StateKey())
	assert.Error(t, m.Action("qty", engine.Payload{"qty": 9}))
	require.NoError(t, m.Scan("4"))
	require.NoError(t, m.Action("confirm", nil))
	call := expectCall(t, m, "set_custom_qty")
	assert.Equal(t, json.Number("4"), call.Params["qty_done"])
	assert.Equal(t, []int{1}, call.Params["selected_line_ids"])
}

func inventoryAtScanProduct(t *testing.T, lines []domain.InventoryLine, selected *domain.Location) *engine.Machine {
	t.Helper()
	m := start(t, "inventory")
	call := expectCall(t, m, "list_inventory")
	answer(t, m, call, domain.Envelope{NextState: "start", Data: payload(t, "inventories", []domain.Inventory{{ID: 3, Name: "Yearly count"}})})
	require.NoError(t, m.Scan("yearly"))
	call = expectCall(t, m, "select_inventory")
	assert.Equal(t, 3, call.Params["inventory_id"])
	data := payload(t, "inventory_lines", lines, "product_scanned_list", map[string]any{"id": 12})
	if selected != nil {
		for k, v := range payload(t, "selected_location", selected) {
			data[k] = v
		}
	}
	answer(t, m, call, domain.Envelope{NextState: "scan_product", Data: data})
	require.Equal(t, "scan_product", m.StateKey())
	return m
}

func TestInventoryCountsZero(t *testing.T) {
	lines := []domain.InventoryLine{{ID: 1, Product: domain.Product{ID: 50, Barcode: "P50"}, Location: locA, ProductQty: decimal.NewFromInt(4)}}
	m := inventoryAtScanProduct(t, lines, nil)
	assert.Equal(t, "Scan a location", m.View().Placeholder)

	require.NoError(t, m.Scan("LOC-A"))
	call := expectCall(t, m, "select_location")
	assert.Equal(t, "LOC-A", call.Params["location_barcode"])
	answer(t, m, call, domain.Envelope{NextState: "scan_product", Data: payload(t, "selected_location", locA)})
	require.NotNil(t, m.Selection().Location)

	require.NoError(t, m.Scan("P50"))
	call = expectCall(t, m, "scan_product")
	assert.Equal(t, 12, call.Params["product_scanned_list_id"])
	assert.Equal(t, 1, call.Params["location_id"])
	answer(t, m, call, domain.Envelope{NextState: "scan_product"})

	require.NoError(t, m.Scan("0"))
	call = expectCall(t, m, "set_quantity")
	assert.Equal(t, 0, call.Params["qty"])
	assert.Equal(t, 50, call.Params["product_id"])
}

func TestInventoryQuantityErrorKeepsProduct(t *testing.T) {
	lines := []domain.InventoryLine{{ID: 1, Product: domain.Product{ID: 50, Barcode: "P50"}, Location: locA, ProductQty: decimal.NewFromInt(4)}}
	m := inventoryAtScanProduct(t, lines, &locA)
	require.NotNil(t, m.Selection().Location)

	require.NoError(t, m.Scan("P50"))
	answer(t, m, expectCall(t, m, "scan_product"), domain.Envelope{
		NextState: "scan_product",
		Data:      payload(t, "inventory_lines", []domain.InventoryLine{}),
	})
	require.Equal(t, "P50", m.Selection().LastScanned)

	err := m.Scan("3")
	assert.True(t, engine.IsKind(err, engine.ErrContext))
	noCall(t, m)
	assert.Equal(t, "P50", m.Selection().LastScanned)
	require.NotNil(t, m.Selection().Location)
}

func TestReceptionRefusesZero(t *testing.T) {
	m := start(t, "reception")
	answer(t, m, expectCall(t, m, "list_vendor_with_pickings"), domain.Envelope{
		NextState: "start",
		Data:      payload(t, "partners", []domain.Partner{{ID: 1, Name: "ACME Supplies"}, {ID: 2, Name: "Globex"}}),
	})
	require.NoError(t, m.Scan("ＡＣＭＥ"))
	noCall(t, m)
	v := m.View()
	require.Len(t, v.Records, 1)
	assert.Equal(t, "ACME Supplies", v.Records[0].Title)

	require.NoError(t, m.Action("select", engine.Payload{"id": 1}))
	line := moveLine(7, locA, nil, "R7", 10, 0)
	answer(t, m, expectCall(t, m, "list_move_lines"), domain.Envelope{NextState: "scan_products", Data: payload(t, "move_lines", []domain.OperationLine{line})})

	require.NoError(t, m.Scan("R7"))
	call := expectCall(t, m, "scan_product")
	assert.Equal(t, 1, call.Params["partner_id"])
	answer(t, m, call, domain.Envelope{NextState: "scan_products"})

	err := m.Scan("0")
	assert.True(t, engine.IsKind(err, engine.ErrContext))
	assert.Equal(t, msgZeroQuantity, m.Message().Body)
	noCall(t, m)

	require.NoError(t, m.Scan("6"))
	call = expectCall(t, m, "set_quantity")
	assert.Equal(t, "R7", call.Params["barcode"])
	assert.Equal(t, 6, call.Params["qty"])
}

func TestStockBatchTransferMirrorsBackendCursor(t *testing.T) {
	m := start(t, "stock_batch_transfer")
	answer(t, m, expectCall(t, m, "list_input_location"), domain.Envelope{
		NextState: "start",
		Data:      payload(t, "input_locations", []domain.Location{locC}),
	})
	err := m.Scan("LOC-X")
	assert.True(t, engine.IsKind(err, engine.ErrClassification))

	require.NoError(t, m.Scan("LOC-C"))
	line := moveLine(7, locC, &locB, "T7", 4, 0)
	answer(t, m, expectCall(t, m, "scan_location"), domain.Envelope{
		NextState: "scan_products",
		Data:      payload(t, "id", locC.ID, "move_lines", []domain.OperationLine{line}),
	})
	assert.Equal(t, locC.ID, m.Selection().Current)

	err = m.Scan("T7")
	assert.True(t, engine.IsKind(err, engine.ErrContext))

	require.NoError(t, m.Scan("LOC-B"))
	call := expectCall(t, m, "set_current_location")
	assert.Equal(t, locC.ID, call.Params["current_source_location_id"])
	answer(t, m, call, domain.Envelope{NextState: "scan_products", Data: payload(t, "selected_location", locB)})
	require.NotNil(t, m.Selection().Location)

	require.NoError(t, m.Scan("T7"))
	call = expectCall(t, m, "drop_product_to_location")
	assert.Equal(t, locB.ID, call.Params["dest_location_id"])
	answer(t, m, call, domain.Envelope{NextState: "scan_products", Data: payload(t, "selected_product", line.Product)})
	assert.Equal(t, "T7", m.Selection().LastScanned)

	require.NoError(t, m.Scan("2"))
	call = expectCall(t, m, "set_product_qty")
	assert.Equal(t, 2, call.Params["qty"])
	assert.Equal(t, "T7", call.Params["barcode"])
}

func TestInputStockTransferSelectsByRecord(t *testing.T) {
	m := start(t, "input_stock_transfer")
	answer(t, m, expectCall(t, m, "list_input_location"), domain.Envelope{
		NextState: "start",
		Data:      payload(t, "input_locations", []domain.Location{locA, locC}),
	})
	assert.Len(t, m.View().Records, 2)
	require.NoError(t, m.Action("select", engine.Payload{"id": 3}))
	call := expectCall(t, m, "scan_location")
	assert.Equal(t, "LOC-C", call.Params["barcode"])
}
