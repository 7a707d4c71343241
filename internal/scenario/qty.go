package scenario

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// qtyParam keeps decimals as JSON numbers; decimal.Decimal marshals to a string.
func qtyParam(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
