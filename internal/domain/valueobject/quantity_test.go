package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantityField_AutoRecomputesOnEveryInput(t *testing.T) {
	q := NewQuantityField(UnitInch)

	q.SetLength("60")
	assert.Empty(t, q.Quantity(), "incomplete inputs surface no quantity")

	q.SetHeight("120")
	q.SetPieceCount("10")
	assert.Equal(t, "500.00", q.Quantity())
	assert.Equal(t, "(60 × 120 × 10) ÷ 144 = 500.00 sqft", q.Formula())

	q.SetPieceCount("5")
	assert.Equal(t, "250.00", q.Quantity())
}

func TestQuantityField_InvalidInputKeepsLastQuantity(t *testing.T) {
	q := NewQuantityField(UnitInch)
	q.SetSize("60x120")
	q.SetPieceCount("10")

	q.SetPieceCount("ten")

	assert.Equal(t, "500.00", q.Quantity())
	_, ok := q.Preview()
	assert.False(t, ok)
}

func TestQuantityField_ManualModeFreezesQuantity(t *testing.T) {
	q := NewQuantityField(UnitInch)
	q.SetSize("60x120")
	q.SetPieceCount("10")

	q.SetAuto(false)
	assert.True(t, q.SetQuantity("480"))

	q.SetPieceCount("20")
	q.SetUnit(UnitCentimeter)
	assert.Equal(t, "480", q.Quantity())
}

func TestQuantityField_ManualEntryIgnoredWhileAuto(t *testing.T) {
	q := NewQuantityField(UnitInch)
	q.SetSize("60x120")
	q.SetPieceCount("10")

	assert.False(t, q.SetQuantity("1"))
	assert.Equal(t, "500.00", q.Quantity())
}

func TestQuantityField_ReenablingAutoRecomputes(t *testing.T) {
	q := NewQuantityField(UnitInch)
	q.SetAuto(false)
	q.SetSize("60x120")
	q.SetPieceCount("10")
	q.SetQuantity("1")

	q.SetAuto(true)

	assert.Equal(t, "500.00", q.Quantity())
}

func TestQuantityField_SetSizeRejectsMalformedText(t *testing.T) {
	q := NewQuantityField(UnitInch)

	assert.False(t, q.SetSize("sixty by one twenty"))
	assert.Empty(t, q.Quantity())
}
