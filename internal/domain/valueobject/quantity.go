package valueobject

import "strconv"

// QuantityField models the quantity input of the product form and its
// auto-calculate toggle. While Auto is on, every change to one of the
// dependent inputs recomputes and overwrites Quantity. While Auto is off the
// quantity is frozen for manual entry and nothing is recomputed.
type QuantityField struct {
	Auto bool

	length     string
	height     string
	unit       Unit
	pieceCount string

	quantity string
	formula  string
}

// NewQuantityField creates a quantity field with auto-calculate enabled.
func NewQuantityField(unit Unit) *QuantityField {
	return &QuantityField{Auto: true, unit: unit}
}

// SetLength updates the length input.
func (q *QuantityField) SetLength(s string) {
	q.length = s
	q.recompute()
}

// SetHeight updates the height input.
func (q *QuantityField) SetHeight(s string) {
	q.height = s
	q.recompute()
}

// SetSize splits a "60x120" style size and updates both length and height.
// It reports false and changes nothing when the text does not match.
func (q *QuantityField) SetSize(s string) bool {
	l, h, ok := ParseSize(s)
	if !ok {
		return false
	}
	q.length, q.height = l, h
	q.recompute()
	return true
}

// SetUnit updates the unit.
func (q *QuantityField) SetUnit(u Unit) {
	q.unit = u
	q.recompute()
}

// SetPieceCount updates the piece count input.
func (q *QuantityField) SetPieceCount(s string) {
	q.pieceCount = s
	q.recompute()
}

// SetAuto toggles auto-calculation. Turning it back on recomputes immediately.
func (q *QuantityField) SetAuto(auto bool) {
	q.Auto = auto
	q.recompute()
}

// SetQuantity stores a manually entered quantity. It is ignored while Auto is on.
func (q *QuantityField) SetQuantity(s string) bool {
	if q.Auto {
		return false
	}
	q.quantity = s
	q.formula = ""
	return true
}

// Quantity returns the current quantity text.
func (q *QuantityField) Quantity() string {
	return q.quantity
}

// Formula returns the derivation of the last computed quantity, if any.
func (q *QuantityField) Formula() string {
	return q.formula
}

// Preview computes the area for the current inputs without touching the field.
func (q *QuantityField) Preview() (AreaResult, bool) {
	return ComputeArea(q.length, q.height, q.unit, q.pieceCount)
}

func (q *QuantityField) recompute() {
	if !q.Auto {
		return
	}
	res, ok := q.Preview()
	if !ok {
		return
	}
	q.quantity = formatArea(res.TotalArea)
	q.formula = res.Formula
}

func formatArea(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
