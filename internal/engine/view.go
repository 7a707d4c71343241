package engine

import (
	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/grouping"
)

// View is the read-only model handed to presentation layers after every event.
type View struct {
	Scenario    string          `json:"scenario"`
	State       string          `json:"state"`
	Title       string          `json:"title"`
	Placeholder string          `json:"placeholder,omitempty"`
	Busy        bool            `json:"busy"`
	Message     *domain.Message `json:"message,omitempty"`
	Selection   SelectionView   `json:"selection"`
	Fields      []Field         `json:"fields,omitempty"`
	Groups      []Group         `json:"groups,omitempty"`
	Records     []Record        `json:"records,omitempty"`
	Actions     []string        `json:"actions,omitempty"`
	Empty       bool            `json:"empty,omitempty"`
	EmptyText   string          `json:"empty_text,omitempty"`
}

type SelectionView struct {
	Location    string `json:"location,omitempty"`
	Current     int    `json:"current,omitempty"`
	LastScanned string `json:"last_scanned,omitempty"`
	LastLineID  int    `json:"last_line_id,omitempty"`
	Picked      []int  `json:"picked,omitempty"`
}

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Group struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Selected bool   `json:"selected,omitempty"`
	Lines    []Line `json:"lines"`
}

type Line struct {
	ID          int    `json:"id"`
	Product     string `json:"product"`
	Barcode     string `json:"barcode,omitempty"`
	Quantity    string `json:"quantity"`
	QtyDone     string `json:"qty_done"`
	Done        bool   `json:"done,omitempty"`
	Selected    bool   `json:"selected,omitempty"`
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	Package     string `json:"package,omitempty"`
	Lot         string `json:"lot,omitempty"`
}

type Record struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

const nothingToDo = "Nothing to do here."

func (m *Machine) View() View {
	info := m.Display()
	title := info.Title
	if m.scenario.Heading != nil {
		if h := m.scenario.Heading(m); h != "" {
			title = h + " > " + title
		}
	}
	v := View{
		Scenario:    m.scenario.Name,
		State:       m.current,
		Title:       title,
		Placeholder: info.Placeholder,
		Busy:        m.Busy(),
		Message:     m.notice,
		Selection: SelectionView{
			Current:     m.sel.Current,
			LastScanned: m.sel.LastScanned,
			LastLineID:  m.sel.LastLineID,
			Picked:      append([]int(nil), m.sel.Picked...),
		},
		Actions: m.ActionNames(),
	}
	if m.sel.Location != nil {
		v.Selection.Location = m.sel.Location.Label()
	}
	st := m.state()
	if st == nil {
		return v
	}
	switch {
	case st.Render != nil:
		st.Render(m, &v)
	case st.Lines != nil:
		v.Groups = LocationGroups(grouping.GroupByLocation(st.Lines(m), m.GroupOptions()))
	}
	if st.Lines != nil && len(v.Groups) == 0 && len(v.Records) == 0 {
		v.Empty = true
		v.EmptyText = nothingToDo
	}
	return v
}

// GroupOptions mirrors the selection into grouping options.
func (m *Machine) GroupOptions() grouping.Options {
	return grouping.Options{
		LastScanned:     m.sel.LastScanned,
		Picked:          m.sel.Picked,
		CurrentLocation: m.sel.Current,
	}
}

func lineView(l grouping.Line) Line {
	out := Line{
		ID:       l.ID,
		Product:  l.Product.Label(),
		Barcode:  l.Product.Barcode,
		Quantity: l.Quantity.String(),
		QtyDone:  l.QtyDone.String(),
		Done:     l.Done,
		Selected: l.Selected,
		Source:   l.LocationSrc.Label(),
	}
	if l.LocationDest != nil {
		out.Destination = l.LocationDest.Label()
	}
	if l.PackageDest != nil {
		out.Package = l.PackageDest.Name
	} else if l.PackageSrc != nil {
		out.Package = l.PackageSrc.Name
	}
	if l.Lot != nil {
		out.Lot = l.Lot.Name
	}
	return out
}

func LocationGroups(groups []grouping.LocationGroup) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		vg := Group{Title: g.Location.Label()}
		for _, l := range g.Lines {
			vg.Lines = append(vg.Lines, lineView(l))
			vg.Selected = vg.Selected || l.Selected
		}
		out = append(out, vg)
	}
	return out
}

func ProductGroups(groups []grouping.ProductGroup) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		vg := Group{
			Title:    g.Product.Label(),
			Subtitle: g.QtyDone.String() + " / " + g.Quantity.String(),
			Selected: g.Selected,
		}
		for _, l := range g.Lines {
			vg.Lines = append(vg.Lines, lineView(l))
		}
		out = append(out, vg)
	}
	return out
}

// DestinationGroups flattens destination groups, one view group per product.
func DestinationGroups(groups []grouping.DestinationGroup) []Group {
	var out []Group
	for _, g := range groups {
		for _, pg := range ProductGroups(g.Products) {
			pg.Subtitle = g.Location.Label() + " · " + pg.Subtitle
			out = append(out, pg)
		}
	}
	return out
}
