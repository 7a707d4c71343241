package scenario

import (
	"strings"

	"golang.org/x/text/cases"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/scan"
)

const (
	msgUnknownBarcode   = "No location or product matches this barcode."
	msgNoProduct        = "Scan a product before entering a quantity."
	msgZeroQuantity     = "Quantity must be greater than zero."
	msgLocationFirst    = "Scan a source location first."
	msgEmptyScan        = "Nothing was scanned."
	msgAnotherProduct   = "You can't scan another product before scanning a package or destination location."
	msgNoMoreProduct    = "There is no more product like that to pick."
	msgDestinationFirst = "You must scan a destination for the current products, or unselect it."
	msgUnknownRecord    = "This record is not in the list anymore."
	msgAlreadyPicked    = "You can't set quantity for an already picked product."
)

// reject turns an unrecognized token into the matching operator error.
func reject(m *engine.Machine, tok scan.Token) error {
	switch tok.Reason {
	case scan.ReasonEmpty:
		return m.Fail(engine.ErrClassification, msgEmptyScan)
	case scan.ReasonNoContext:
		return m.Fail(engine.ErrContext, msgNoProduct)
	case scan.ReasonZero:
		return m.Fail(engine.ErrContext, msgZeroQuantity)
	default:
		return m.Fail(engine.ErrClassification, msgUnknownBarcode)
	}
}

// lookup returns the normalized text of a free-form document scan.
func lookup(m *engine.Machine, raw string) (string, error) {
	text := scan.Normalize(raw)
	if text == "" {
		return "", m.Fail(engine.ErrClassification, msgEmptyScan)
	}
	return text, nil
}

func linesAt(key string) func(m *engine.Machine) []domain.OperationLine {
	return func(m *engine.Machine) []domain.OperationLine {
		var lines []domain.OperationLine
		m.Data().Decode(key, &lines)
		return lines
	}
}

// pickingLines reads the lines of the "picking" object of the active state.
func pickingLines(m *engine.Machine) []domain.OperationLine {
	var p domain.Picking
	m.Data().Decode("picking", &p)
	return p.MoveLines
}

func pickingID(m *engine.Machine) int {
	if id := m.Data().Int("picking"); id != 0 {
		return id
	}
	return m.Shared().Int("picking_id")
}

func rememberPicking(m *engine.Machine, id int) {
	if id != 0 {
		_ = m.Shared().Set("picking_id", id)
	}
}

func lineIDs(lines []domain.OperationLine) []int {
	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	return ids
}

func lineByID(lines []domain.OperationLine, id int) (domain.OperationLine, bool) {
	for _, l := range lines {
		if l.ID == id {
			return l, true
		}
	}
	return domain.OperationLine{}, false
}

// firstOpen is the first line still to do for barcode.
func firstOpen(lines []domain.OperationLine, barcode string) (domain.OperationLine, bool) {
	for _, l := range lines {
		if !l.Done && l.Product.MatchesBarcode(barcode) {
			return l, true
		}
	}
	return domain.OperationLine{}, false
}

func destinations(lines []domain.OperationLine) []domain.Location {
	seen := map[int]struct{}{}
	var out []domain.Location
	add := func(loc domain.Location) {
		if loc.ID == 0 {
			return
		}
		if _, ok := seen[loc.ID]; ok {
			return
		}
		seen[loc.ID] = struct{}{}
		out = append(out, loc)
	}
	for _, l := range lines {
		if l.LocationDest != nil {
			add(*l.LocationDest)
		}
		for _, s := range l.SuggestedLocationDest {
			add(s)
		}
	}
	return out
}

type namedRecord struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Barcode string `json:"barcode,omitempty"`
	Origin  string `json:"origin,omitempty"`
	Partner *struct {
		Name string `json:"name"`
	} `json:"partner,omitempty"`
	MoveLineCount int `json:"move_line_count,omitempty"`
}

func decodeRecords(m *engine.Machine, key string) []namedRecord {
	var out []namedRecord
	m.Data().Decode(key, &out)
	return out
}

func renderRecords(key string) func(m *engine.Machine, v *engine.View) {
	return func(m *engine.Machine, v *engine.View) {
		v.Records = recordViews(decodeRecords(m, key))
	}
}

func recordViews(recs []namedRecord) []engine.Record {
	out := make([]engine.Record, 0, len(recs))
	for _, r := range recs {
		rec := engine.Record{ID: r.ID, Title: r.Name}
		switch {
		case r.Partner != nil && r.Origin != "":
			rec.Subtitle = r.Partner.Name + " · " + r.Origin
		case r.Partner != nil:
			rec.Subtitle = r.Partner.Name
		case r.Origin != "":
			rec.Subtitle = r.Origin
		}
		out = append(out, rec)
	}
	return out
}

func findRecord(recs []namedRecord, id int) (namedRecord, bool) {
	for _, r := range recs {
		if r.ID == id {
			return r, true
		}
	}
	return namedRecord{}, false
}

// matchName compares scanned text against a record name, ignoring case and width.
func matchName(name, text string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(scan.Normalize(name)), fold.String(text))
}

func fieldIf(v *engine.View, label, value string) {
	if strings.TrimSpace(value) != "" {
		v.Fields = append(v.Fields, engine.Field{Label: label, Value: value})
	}
}
