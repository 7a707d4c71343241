package engine

import "shopfloor_go/internal/domain"

// Scope names the selection fields a state owns and loses on exit.
type Scope uint8

const (
	ScopeLocation Scope = 1 << iota
	ScopeProduct
	ScopePicked

	ScopeNone Scope = 0
	ScopeAll        = ScopeLocation | ScopeProduct | ScopePicked
)

const defaultPickedLimit = 16

// Selection is the operator cursor of a scenario activation.
type Selection struct {
	// Location is the selected source location.
	Location *domain.Location
	// Current is the id of the location the operator stands at.
	Current int
	// LastScanned is the product barcode awaiting a quantity or destination.
	LastScanned string
	// LastLineID is the line LastScanned resolved to.
	LastLineID int
	// Picked lists recently completed lines, newest last.
	Picked []int

	limit int
}

func (s *Selection) Clear(scope Scope) {
	if scope&ScopeLocation != 0 {
		s.Location = nil
		s.Current = 0
	}
	if scope&ScopeProduct != 0 {
		s.LastScanned = ""
		s.LastLineID = 0
	}
	if scope&ScopePicked != 0 {
		s.Picked = nil
	}
}

func (s *Selection) SelectLocation(loc domain.Location) {
	s.Location = &loc
	s.Current = loc.ID
}

func (s *Selection) SelectProduct(barcode string, lineID int) {
	s.LastScanned = barcode
	s.LastLineID = lineID
}

// ResetCursor drops the selected location and product. The operator's
// current position and the picked lines survive.
func (s *Selection) ResetCursor() {
	s.Location = nil
	s.LastScanned = ""
	s.LastLineID = 0
}

func (s *Selection) MarkPicked(id int) {
	if id == 0 {
		return
	}
	for i, p := range s.Picked {
		if p == id {
			s.Picked = append(s.Picked[:i], s.Picked[i+1:]...)
			break
		}
	}
	s.Picked = append(s.Picked, id)
	limit := s.limit
	if limit <= 0 {
		limit = defaultPickedLimit
	}
	if over := len(s.Picked) - limit; over > 0 {
		s.Picked = append([]int(nil), s.Picked[over:]...)
	}
}

func (s Selection) IsPicked(id int) bool {
	for _, p := range s.Picked {
		if p == id {
			return true
		}
	}
	return false
}

func (s Selection) HasLocation() bool { return s.Location != nil }

func (s Selection) HasProduct() bool { return s.LastScanned != "" }

func (s Selection) Empty() bool {
	return s.Location == nil && s.Current == 0 && s.LastScanned == "" && s.LastLineID == 0 && len(s.Picked) == 0
}
