package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Location struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Barcode string `json:"barcode,omitempty"`
}

func (l Location) MatchesBarcode(code string) bool {
	return code != "" && l.Barcode == code
}

// Label is the display name, falling back to the barcode for sparse payloads.
func (l Location) Label() string {
	if name := strings.TrimSpace(l.Name); name != "" {
		return name
	}
	return l.Barcode
}

type Barcode struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name,omitempty"`
	DefaultCode  string    `json:"default_code,omitempty"`
	Barcode      string    `json:"barcode,omitempty"`
	Barcodes     []Barcode `json:"barcodes,omitempty"`
	SupplierCode string    `json:"supplier_code,omitempty"`
}

// MatchesBarcode checks the primary barcode and every alternate one.
func (p Product) MatchesBarcode(code string) bool {
	if code == "" {
		return false
	}
	if p.Barcode == code {
		return true
	}
	for _, b := range p.Barcodes {
		if b.Name == code {
			return true
		}
	}
	return false
}

func (p Product) Label() string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return p.Barcode
}

type Package struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Barcode   string     `json:"barcode,omitempty"`
	Packaging *Packaging `json:"packaging,omitempty"`
}

type Packaging struct {
	ID   int             `json:"id"`
	Name string          `json:"name"`
	Qty  decimal.Decimal `json:"qty"`
}

type Lot struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Partner struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// OperationLine is one unit of pick, pack, count or reception work.
type OperationLine struct {
	ID                    int             `json:"id"`
	Product               Product         `json:"product"`
	Quantity              decimal.Decimal `json:"quantity"`
	QtyDone               decimal.Decimal `json:"qty_done"`
	Done                  bool            `json:"done"`
	LocationSrc           Location        `json:"location_src"`
	LocationDest          *Location       `json:"location_dest,omitempty"`
	SuggestedLocationDest []Location      `json:"suggested_location_dest,omitempty"`
	PackageSrc            *Package        `json:"package_src,omitempty"`
	PackageDest           *Package        `json:"package_dest,omitempty"`
	Lot                   *Lot            `json:"lot,omitempty"`
	Picking               *PickingRef     `json:"picking,omitempty"`
}

func (l OperationLine) Remaining() decimal.Decimal {
	rest := l.Quantity.Sub(l.QtyDone)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// AcceptsDestination reports whether loc is the assigned or a suggested destination.
func (l OperationLine) AcceptsDestination(loc Location) bool {
	if l.LocationDest != nil && l.LocationDest.ID == loc.ID {
		return true
	}
	for _, s := range l.SuggestedLocationDest {
		if s.ID == loc.ID {
			return true
		}
	}
	return false
}

// InventoryLine is the counting flavour of a line: one expected quantity at one location.
type InventoryLine struct {
	ID         int             `json:"id"`
	Product    Product         `json:"product"`
	Location   Location        `json:"location"`
	ProductQty decimal.Decimal `json:"product_qty"`
	Done       bool            `json:"done"`
}

func (l InventoryLine) OperationLine() OperationLine {
	return OperationLine{
		ID:          l.ID,
		Product:     l.Product,
		Quantity:    l.ProductQty,
		Done:        l.Done,
		LocationSrc: l.Location,
	}
}

func InventoryOperationLines(lines []InventoryLine) []OperationLine {
	out := make([]OperationLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.OperationLine())
	}
	return out
}

type PickingRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Picking struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Origin        string          `json:"origin,omitempty"`
	Partner       *Partner        `json:"partner,omitempty"`
	MoveLineCount int             `json:"move_line_count,omitempty"`
	MoveLines     []OperationLine `json:"move_lines,omitempty"`
}

type PickingBatch struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	PickingCount  int             `json:"picking_count,omitempty"`
	MoveLineCount int             `json:"move_line_count,omitempty"`
	Pickings      []Picking       `json:"pickings,omitempty"`
	MoveLines     []OperationLine `json:"move_lines,omitempty"`
}

// Lines flattens picking lines for batches that nest them per picking.
func (b PickingBatch) Lines() []OperationLine {
	if len(b.MoveLines) > 0 {
		return b.MoveLines
	}
	var out []OperationLine
	for _, p := range b.Pickings {
		for _, l := range p.MoveLines {
			if l.Picking == nil {
				l.Picking = &PickingRef{ID: p.ID, Name: p.Name}
			}
			out = append(out, l)
		}
	}
	return out
}

type Inventory struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state,omitempty"`
	LineCount int    `json:"line_count,omitempty"`
}
