package scan

// DefaultCeiling keeps long numeric barcodes from being read as quantities.
const DefaultCeiling = 10000

// ZeroMode is how a scenario reads a scanned quantity of 0.
type ZeroMode uint8

const (
	// ZeroCounts treats 0 as a real count (inventory, manual quantities).
	ZeroCounts ZeroMode = iota
	// ZeroResets sends 0 and drops the product cursor afterwards.
	ZeroResets
	// ZeroInvalid refuses 0 as a quantity.
	ZeroInvalid
)

func (z ZeroMode) String() string {
	switch z {
	case ZeroResets:
		return "resets"
	case ZeroInvalid:
		return "invalid"
	default:
		return "counts"
	}
}

type QuantityPolicy struct {
	Ceiling int
	Zero    ZeroMode
}

func DefaultPolicy() QuantityPolicy {
	return QuantityPolicy{Ceiling: DefaultCeiling, Zero: ZeroCounts}
}

// Parse reads text as a quantity. ok is false when text is not a plain
// non-negative integer below the ceiling; reason is ReasonZero when the
// value is 0 and the policy refuses it.
func (p QuantityPolicy) Parse(text string) (qty int, reason Reason, ok bool) {
	if text == "" || len(text) > 9 {
		return 0, ReasonNone, false
	}
	n := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c < '0' || c > '9' {
			return 0, ReasonNone, false
		}
		n = n*10 + int(c-'0')
	}
	ceiling := p.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if n >= ceiling {
		return 0, ReasonNone, false
	}
	if n == 0 && p.Zero == ZeroInvalid {
		return 0, ReasonZero, false
	}
	return n, ReasonNone, true
}
