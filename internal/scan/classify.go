package scan

// Strategy is the default classifier: quantity first, then location, then
// the first matching line still to do.
type Strategy struct {
	Policy QuantityPolicy
}

func New(policy QuantityPolicy) Strategy {
	return Strategy{Policy: policy}
}

func (s Strategy) Classify(raw string, ctx Context) Token {
	text := Normalize(raw)
	tok := Token{Kind: Unrecognized, Raw: text}
	if text == "" {
		tok.Reason = ReasonEmpty
		return tok
	}

	qty, qtyReason, isQty := s.Policy.Parse(text)
	if isQty && ctx.LastScanned != "" {
		tok.Kind = Quantity
		tok.Quantity = qty
		return tok
	}

	for i := range ctx.Locations {
		if ctx.Locations[i].MatchesBarcode(text) {
			loc := ctx.Locations[i]
			tok.Kind = Location
			tok.Location = &loc
			return tok
		}
	}

	// Lines still to do win over just-picked ones kept visible.
	for _, wantDone := range []bool{false, true} {
		for i := range ctx.Lines {
			line := ctx.Lines[i]
			if line.Done != wantDone || (line.Done && !ctx.picked(line.ID)) {
				continue
			}
			if line.Product.MatchesBarcode(text) {
				tok.Kind = Product
				tok.Line = &line
				return tok
			}
		}
	}

	switch {
	case qtyReason == ReasonZero && ctx.LastScanned != "":
		tok.Reason = ReasonZero
	case isQty || qtyReason == ReasonZero:
		tok.Reason = ReasonNoContext
	default:
		tok.Reason = ReasonNoMatch
	}
	return tok
}
