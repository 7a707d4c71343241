package scan

import "shopfloor_go/internal/domain"

type Kind uint8

const (
	Unrecognized Kind = iota
	Location
	Product
	Quantity
)

func (k Kind) String() string {
	switch k {
	case Location:
		return "location"
	case Product:
		return "product"
	case Quantity:
		return "quantity"
	default:
		return "unrecognized"
	}
}

// Reason explains an Unrecognized token so callers can pick the operator message.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonEmpty
	ReasonNoMatch
	ReasonNoContext
	ReasonZero
)

func (r Reason) String() string {
	switch r {
	case ReasonEmpty:
		return "empty"
	case ReasonNoMatch:
		return "no_match"
	case ReasonNoContext:
		return "quantity_without_product"
	case ReasonZero:
		return "zero_quantity"
	default:
		return ""
	}
}

type Token struct {
	Kind     Kind
	Raw      string
	Quantity int
	Location *domain.Location
	Line     *domain.OperationLine
	Reason   Reason
}

func (t Token) IsZero() bool {
	return t.Kind == Quantity && t.Quantity == 0
}

// Context is the snapshot of the screen a scan is classified against.
type Context struct {
	LastScanned string
	Locations   []domain.Location
	Lines       []domain.OperationLine
	Picked      []int
}

func (c Context) picked(id int) bool {
	for _, p := range c.Picked {
		if p == id {
			return true
		}
	}
	return false
}

type Classifier interface {
	Classify(raw string, ctx Context) Token
}
