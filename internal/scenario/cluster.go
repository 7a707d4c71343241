package scenario

import (
	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
)

// States shared by both cluster picking flavours: getting a batch and
// unloading it.

func batchID(m *engine.Machine) int {
	if id := m.Shared().Int("batch_id"); id != 0 {
		return id
	}
	return m.Data().Int("picking_batch_id")
}

// rememberBatch stores the batch described by the active state's data.
func rememberBatch(m *engine.Machine) {
	d := m.Data()
	if id := d.Int("id"); id != 0 {
		_ = m.Shared().Set("batch_id", id)
	}
	if name := d.String("name"); name != "" {
		_ = m.Shared().Set("batch_name", name)
	}
}

func batchHeading(m *engine.Machine) string {
	return m.Shared().String("batch_name")
}

func withBatch(m *engine.Machine, extra engine.Params) engine.Params {
	p := engine.Params{"picking_batch_id": batchID(m)}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func clusterStart() *engine.State {
	return &engine.State{
		Title: "Start cluster picking",
		Actions: map[string]engine.Action{
			"get_work":         engine.Do(func(m *engine.Machine, _ engine.Payload) error { return m.Call("find_batch", nil) }),
			"manual_selection": engine.Do(func(m *engine.Machine, _ engine.Payload) error { return m.Call("list_batch", nil) }),
		},
	}
}

func clusterManualSelection() *engine.State {
	return &engine.State{
		Title:       "Select a batch",
		Placeholder: "Scan a batch name",
		Back:        "start",
		OnScan: func(m *engine.Machine, raw string) error {
			text, err := lookup(m, raw)
			if err != nil {
				return err
			}
			for _, r := range decodeRecords(m, "records") {
				if matchName(r.Name, text) {
					return m.Call("select", engine.Params{"picking_batch_id": r.ID})
				}
			}
			return m.Fail(engine.ErrClassification, "No batch matches "+text+".")
		},
		Actions: map[string]engine.Action{
			"select": engine.Do(func(m *engine.Machine, p engine.Payload) error {
				id := p.Int("id")
				if _, ok := findRecord(decodeRecords(m, "records"), id); !ok {
					return m.Fail(engine.ErrContext, msgUnknownRecord)
				}
				return m.Call("select", engine.Params{"picking_batch_id": id})
			}),
		},
		Render: renderRecords("records"),
	}
}

func clusterConfirmStart() *engine.State {
	return &engine.State{
		Title: "Confirm start",
		Enter: rememberBatch,
		Actions: map[string]engine.Action{
			"confirm": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
				return m.Call("confirm_start", withBatch(m, nil))
			}),
			"cancel": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
				return m.Call("unassign", withBatch(m, nil), func(m *engine.Machine, _ domain.Envelope) {
					m.ResetData()
				})
			}),
		},
		Render: func(m *engine.Machine, v *engine.View) {
			var batch domain.PickingBatch
			m.Data().Decode("pickings", &batch.Pickings)
			fieldIf(v, "Batch", m.Data().String("name"))
			for _, p := range batch.Pickings {
				rec := engine.Record{ID: p.ID, Title: p.Name, Subtitle: p.Origin}
				if p.Partner != nil {
					rec.Subtitle = p.Partner.Name
				}
				v.Records = append(v.Records, rec)
			}
		},
	}
}

func unloadDestination(op string, confirmation bool, extra func(m *engine.Machine) engine.Params) func(m *engine.Machine, raw string) error {
	return func(m *engine.Machine, raw string) error {
		text, err := lookup(m, raw)
		if err != nil {
			return err
		}
		_ = m.Shared().Set("unload_barcode", text)
		params := withBatch(m, engine.Params{"barcode": text, "confirmation": confirmation})
		if extra != nil {
			for k, v := range extra(m) {
				params[k] = v
			}
		}
		return m.Call(op, params)
	}
}

func unloadPackage(m *engine.Machine) engine.Params {
	return engine.Params{"package_id": m.Data().Int("package")}
}

func renderUnload(m *engine.Machine, v *engine.View) {
	var dest domain.Location
	if m.Data().Decode("location_dest", &dest) {
		fieldIf(v, "Destination", dest.Label())
	}
	var pack domain.Package
	if m.Data().Decode("package", &pack) {
		fieldIf(v, "Package", pack.Name)
	}
}

// clusterUnloadStates are the unload screens reached from a full bin or a finished batch.
func clusterUnloadStates(states map[string]*engine.State) {
	states["unload_all"] = &engine.State{
		Title:       "Unload all bins",
		Placeholder: "Scan the destination location",
		OnScan:      unloadDestination("set_destination_all", false, nil),
		Actions: map[string]engine.Action{
			"split": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
				return m.Call("unload_split", withBatch(m, nil))
			}),
		},
		Render: renderUnload,
	}
	states["confirm_unload_all"] = &engine.State{
		Title:       "Confirm unload",
		Placeholder: "Scan the destination location again",
		OnScan:      unloadDestination("set_destination_all", true, nil),
		Actions: map[string]engine.Action{
			"confirm": engine.Do(func(m *engine.Machine, _ engine.Payload) error {
				barcode := m.Shared().String("unload_barcode")
				if barcode == "" {
					return m.Fail(engine.ErrContext, "Scan the destination location again.")
				}
				return m.Call("set_destination_all", withBatch(m, engine.Params{"barcode": barcode, "confirmation": true}))
			}),
			"deny": engine.GoTo("unload_all"),
		},
		Render: renderUnload,
	}
	states["unload_single"] = &engine.State{
		Title:       "Unload bin",
		Placeholder: "Scan the bin package",
		OnScan:      unloadDestination("unload_scan_pack", false, unloadPackage),
		Render:      renderUnload,
	}
	states["unload_set_destination"] = &engine.State{
		Title:       "Unload bin",
		Placeholder: "Scan the destination location",
		OnScan:      unloadDestination("unload_scan_destination", false, unloadPackage),
		Render:      renderUnload,
	}
	states["confirm_unload_set_destination"] = &engine.State{
		Title:       "Confirm unload",
		Placeholder: "Scan the destination location again",
		OnScan:      unloadDestination("unload_scan_destination", true, unloadPackage),
		Render:      renderUnload,
	}
}
