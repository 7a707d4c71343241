// Package grouping orders operation lines for display and for scan matching.
package grouping

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"shopfloor_go/internal/domain"
)

type MatchMode uint8

const (
	MatchBarcode MatchMode = iota
	MatchLineID
)

type Options struct {
	// LastScanned selects the first line whose product matches it (MatchBarcode).
	LastScanned string
	// SelectedLineID selects a line by id (MatchLineID).
	SelectedLineID int
	Match          MatchMode
	// Picked keeps done lines visible until the next render drops them.
	Picked []int
	// CurrentLocation is pivoted to the end of the group list.
	CurrentLocation int
	// KeepEmpty keeps lines with a non-positive requested quantity (counts).
	KeepEmpty bool
	// ByDestination keys location groups on the destination instead of the source.
	ByDestination bool
}

type Line struct {
	domain.OperationLine
	Selected bool
}

type LocationGroup struct {
	Location domain.Location
	Lines    []Line
}

type ProductGroup struct {
	Product  domain.Product
	Done     bool
	Selected bool
	Quantity decimal.Decimal
	QtyDone  decimal.Decimal
	Lines    []Line
}

type DestinationGroup struct {
	Location domain.Location
	Products []ProductGroup
}

func (o Options) picked(id int) bool {
	for _, p := range o.Picked {
		if p == id {
			return true
		}
	}
	return false
}

// Filter drops empty lines and done lines that are not in the picked allow-list.
func Filter(lines []domain.OperationLine, opts Options) []domain.OperationLine {
	out := make([]domain.OperationLine, 0, len(lines))
	for _, l := range lines {
		if !opts.KeepEmpty && !l.Quantity.IsPositive() {
			continue
		}
		if l.Done && !opts.picked(l.ID) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Mark filters lines and flags the first one matching the selection.
func Mark(lines []domain.OperationLine, opts Options) []Line {
	filtered := Filter(lines, opts)
	out := make([]Line, len(filtered))
	marked := false
	for i, l := range filtered {
		out[i] = Line{OperationLine: l}
		if marked {
			continue
		}
		switch opts.Match {
		case MatchLineID:
			marked = opts.SelectedLineID != 0 && l.ID == opts.SelectedLineID
		default:
			marked = l.Product.MatchesBarcode(opts.LastScanned)
		}
		out[i].Selected = marked
	}
	return out
}

func lineRank(l Line) int {
	switch {
	case l.Selected:
		return 0
	case l.Done:
		return 2
	default:
		return 1
	}
}

func sortLines(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lineRank(lines[i]) < lineRank(lines[j])
	})
}

func groupKey(l domain.OperationLine, byDest bool) domain.Location {
	if byDest {
		if l.LocationDest != nil {
			return *l.LocationDest
		}
		return domain.Location{}
	}
	return l.LocationSrc
}

func byLabel(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// pivot moves the group at index idx to the end, keeping the others in order.
func pivot[T any](groups []T, idx int) []T {
	if idx < 0 || idx >= len(groups)-1 {
		return groups
	}
	moved := groups[idx]
	out := append(groups[:idx:idx], groups[idx+1:]...)
	return append(out, moved)
}

func GroupByLocation(lines []domain.OperationLine, opts Options) []LocationGroup {
	marked := Mark(lines, opts)
	if len(marked) == 0 {
		return []LocationGroup{}
	}
	index := make(map[int]int)
	var groups []LocationGroup
	for _, l := range marked {
		loc := groupKey(l.OperationLine, opts.ByDestination)
		i, ok := index[loc.ID]
		if !ok {
			i = len(groups)
			index[loc.ID] = i
			groups = append(groups, LocationGroup{Location: loc})
		}
		groups[i].Lines = append(groups[i].Lines, l)
	}
	for i := range groups {
		sortLines(groups[i].Lines)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return byLabel(groups[i].Location.Label(), groups[j].Location.Label())
	})
	current := -1
	if opts.CurrentLocation != 0 {
		for i, g := range groups {
			if g.Location.ID == opts.CurrentLocation {
				current = i
				break
			}
		}
	}
	return pivot(groups, current)
}

type productKey struct {
	product int
	done    bool
}

func groupProducts(marked []Line) []ProductGroup {
	index := make(map[productKey]int)
	var groups []ProductGroup
	for _, l := range marked {
		key := productKey{product: l.Product.ID, done: l.Done}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ProductGroup{Product: l.Product, Done: l.Done})
		}
		g := &groups[i]
		g.Lines = append(g.Lines, l)
		g.Quantity = g.Quantity.Add(l.Quantity)
		g.QtyDone = g.QtyDone.Add(l.QtyDone)
		g.Selected = g.Selected || l.Selected
	}
	for i := range groups {
		sortLines(groups[i].Lines)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		gi, gj := groups[i], groups[j]
		if gi.Selected != gj.Selected {
			return gi.Selected
		}
		if gi.Done != gj.Done {
			return !gi.Done
		}
		return byLabel(gi.Product.Label(), gj.Product.Label())
	})
	return groups
}

// GroupByProduct keeps done and in-progress quantities of a product apart.
func GroupByProduct(lines []domain.OperationLine, opts Options) []ProductGroup {
	marked := Mark(lines, opts)
	if len(marked) == 0 {
		return []ProductGroup{}
	}
	return groupProducts(marked)
}

// GroupProductsByDestination groups by destination location, then by product.
func GroupProductsByDestination(lines []domain.OperationLine, opts Options) []DestinationGroup {
	opts.ByDestination = true
	locGroups := GroupByLocation(lines, opts)
	out := make([]DestinationGroup, 0, len(locGroups))
	for _, g := range locGroups {
		out = append(out, DestinationGroup{Location: g.Location, Products: groupProducts(g.Lines)})
	}
	return out
}
