// Package valueobject contains value objects that represent concepts without identity.
package valueobject

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unit is the measurement unit used for slab dimensions.
type Unit string

// Supported dimension units.
const (
	UnitInch       Unit = "in"
	UnitCentimeter Unit = "cm"
)

// Area divisors convert length × height × pieces into square feet.
const (
	// SquareInchesPerSquareFoot is exact.
	SquareInchesPerSquareFoot = 144

	// SquareCentimetersPerSquareFoot is a rounded constant (the exact figure is ~929.03).
	SquareCentimetersPerSquareFoot = 929
)

// ErrInvalidUnit is returned when a unit string is neither inches nor centimeters.
var ErrInvalidUnit = errors.New("unit must be \"in\" or \"cm\"")

// ParseUnit parses a free-text unit.
//
// Parameters:
//   - s: unit text such as "in", "inch", "CM"
//
// Returns:
//   - Unit: the parsed unit
//   - error: ErrInvalidUnit when the text is not recognised
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "inch", "inches", `"`:
		return UnitInch, nil
	case "cm", "centimeter", "centimeters", "centimetre", "centimetres":
		return UnitCentimeter, nil
	}
	return "", ErrInvalidUnit
}

// Divisor returns the square-foot divisor for the unit, or 0 for an unknown unit.
func (u Unit) Divisor() float64 {
	switch u {
	case UnitInch:
		return SquareInchesPerSquareFoot
	case UnitCentimeter:
		return SquareCentimetersPerSquareFoot
	}
	return 0
}

// number is the decimal grammar accepted for every dimension operand.
const number = `(\d+(?:\.\d+)?|\.\d+)`

var (
	// sizePattern matches "<number>[x*-]<number>" with optional whitespace.
	sizePattern = regexp.MustCompile(`^\s*` + number + `\s*[xX*×-]\s*` + number + `\s*$`)

	decimalPattern = regexp.MustCompile(`^` + number + `$`)
)

// ParseDecimal parses plain decimal text such as "60", "60.5" or ".5".
// Signs, exponents, hex and Inf/NaN spellings are rejected.
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseSize splits a size text such as "60 x 120" into its length and height operands.
// The operands are returned as text so callers can feed them to ComputeArea unchanged.
func ParseSize(s string) (length, height string, ok bool) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// AreaResult is the total area of a set of slabs in square feet together
// with the derivation shown to the user.
type AreaResult struct {
	// TotalArea in square feet, rounded to two decimal places.
	TotalArea float64 `json:"totalArea"`

	// Formula echoes the operands and divisor, e.g. "(60 × 120 × 10) ÷ 144 = 500.00 sqft".
	Formula string `json:"formula"`
}

// ComputeArea derives the total area from free-text dimensions.
// It returns false when any operand is not a finite positive number or the
// unit is unknown; callers then show no preview and surface no quantity.
//
// Parameters:
//   - lengthStr: slab length
//   - heightStr: slab height
//   - unit: unit of length and height
//   - pieceCountStr: number of slabs
//
// Returns:
//   - AreaResult: total area and formula
//   - bool: false when the inputs do not describe a valid area
func ComputeArea(lengthStr, heightStr string, unit Unit, pieceCountStr string) (AreaResult, bool) {
	l, ok := parsePositive(lengthStr)
	if !ok {
		return AreaResult{}, false
	}
	h, ok := parsePositive(heightStr)
	if !ok {
		return AreaResult{}, false
	}
	p, ok := parsePositive(pieceCountStr)
	if !ok {
		return AreaResult{}, false
	}
	return ProductDimensions{Length: l, Height: h, Unit: unit, PieceCount: p}.Area()
}

// ProductDimensions is the parsed form of the size inputs of a product form.
type ProductDimensions struct {
	Length     float64 `json:"length"`
	Height     float64 `json:"height"`
	Unit       Unit    `json:"unit"`
	PieceCount float64 `json:"pieceCount"`
}

// Area computes the total area. It is a pure function of the dimensions.
func (d ProductDimensions) Area() (AreaResult, bool) {
	divisor := d.Unit.Divisor()
	if divisor == 0 || !positive(d.Length) || !positive(d.Height) || !positive(d.PieceCount) {
		return AreaResult{}, false
	}

	total := roundTo2(d.Length * d.Height * d.PieceCount / divisor)

	return AreaResult{
		TotalArea: total,
		Formula: fmt.Sprintf("(%s × %s × %s) ÷ %s = %.2f sqft",
			formatOperand(d.Length),
			formatOperand(d.Height),
			formatOperand(d.PieceCount),
			formatOperand(divisor),
			total,
		),
	}, true
}

// String returns e.g. "60x120 in × 10".
func (d ProductDimensions) String() string {
	return fmt.Sprintf("%sx%s %s × %s",
		formatOperand(d.Length), formatOperand(d.Height), d.Unit, formatOperand(d.PieceCount))
}

func parsePositive(s string) (float64, bool) {
	v, ok := ParseDecimal(s)
	return v, ok && positive(v)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatOperand prints the shortest decimal form, so 60 prints as "60" and 60.5 as "60.5".
func formatOperand(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
