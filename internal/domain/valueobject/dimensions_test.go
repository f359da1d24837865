package valueobject

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeArea_Inches(t *testing.T) {
	res, ok := ComputeArea("60", "120", UnitInch, "10")

	require.True(t, ok)
	assert.Equal(t, 500.0, res.TotalArea)
	assert.Equal(t, "(60 × 120 × 10) ÷ 144 = 500.00 sqft", res.Formula)
}

func TestComputeArea_Centimeters(t *testing.T) {
	res, ok := ComputeArea("300", "180", UnitCentimeter, "2")

	require.True(t, ok)
	// 300*180*2/929 = 116.2540...
	assert.Equal(t, 116.25, res.TotalArea)
	assert.Equal(t, "(300 × 180 × 2) ÷ 929 = 116.25 sqft", res.Formula)
}

func TestComputeArea_EchoesFractionalOperands(t *testing.T) {
	res, ok := ComputeArea(" 60.5 ", "120", UnitInch, "1")

	require.True(t, ok)
	assert.Equal(t, 50.42, res.TotalArea)
	assert.Equal(t, "(60.5 × 120 × 1) ÷ 144 = 50.42 sqft", res.Formula)
}

func TestComputeArea_MatchesRoundedFormula(t *testing.T) {
	cases := []struct {
		l, h, p float64
		unit    Unit
	}{
		{1, 1, 1, UnitInch},
		{97.3, 41.2, 3, UnitInch},
		{240, 120, 7, UnitCentimeter},
		{0.5, 0.25, 1, UnitCentimeter},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%v_%v_%v_%s", tc.l, tc.h, tc.p, tc.unit), func(t *testing.T) {
			res, ok := ComputeArea(
				formatOperand(tc.l), formatOperand(tc.h), tc.unit, formatOperand(tc.p))
			require.True(t, ok)

			want := math.Round(tc.l*tc.h*tc.p/tc.unit.Divisor()*100) / 100
			assert.Equal(t, want, res.TotalArea)
			assert.GreaterOrEqual(t, res.TotalArea, 0.0)
		})
	}
}

func TestComputeArea_RejectsInvalidOperands(t *testing.T) {
	cases := map[string][3]string{
		"empty length":     {"", "120", "1"},
		"text height":      {"60", "abc", "1"},
		"zero pieces":      {"60", "120", "0"},
		"negative length":  {"-60", "120", "1"},
		"negative pieces":  {"60", "120", "-2"},
		"infinite height":  {"60", "Inf", "1"},
		"nan length":       {"NaN", "120", "1"},
		"trailing garbage": {"60cm", "120", "1"},
		"hex float":        {"0x1p3", "120", "1"},
		"exponent":         {"60", "1.2e2", "1"},
		"signed":           {"+60", "120", "1"},
		"hex pieces":       {"60", "120", "0x4"},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := ComputeArea(in[0], in[1], UnitInch, in[2])
			assert.False(t, ok)
		})
	}
}

func TestParseDecimal(t *testing.T) {
	for in, want := range map[string]float64{"60": 60, " 60.5 ": 60.5, ".5": 0.5, "0": 0} {
		v, ok := ParseDecimal(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, v, in)
	}
	for _, in := range []string{"", "0x1p3", "1e3", "-1", "+1", "1.", "Inf", "NaN", "1_000"} {
		_, ok := ParseDecimal(in)
		assert.False(t, ok, in)
	}
}

func TestComputeArea_RejectsUnknownUnit(t *testing.T) {
	_, ok := ComputeArea("60", "120", Unit("mm"), "1")
	assert.False(t, ok)
}

func TestComputeArea_Idempotent(t *testing.T) {
	first, ok := ComputeArea("63", "126", UnitInch, "4")
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		again, ok := ComputeArea("63", "126", UnitInch, "4")
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestParseSize(t *testing.T) {
	cases := []struct {
		in     string
		length string
		height string
		ok     bool
	}{
		{"60x120", "60", "120", true},
		{" 60 X 120 ", "60", "120", true},
		{"60*120", "60", "120", true},
		{"60 - 120", "60", "120", true},
		{"60×120", "60", "120", true},
		{"60.5x120.25", "60.5", "120.25", true},
		{"60", "", "", false},
		{"60x", "", "", false},
		{"axb", "", "", false},
		{"60x120x3", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			l, h, ok := ParseSize(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.length, l)
			assert.Equal(t, tc.height, h)
		})
	}
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit(" Inches ")
	require.NoError(t, err)
	assert.Equal(t, UnitInch, u)

	u, err = ParseUnit("CM")
	require.NoError(t, err)
	assert.Equal(t, UnitCentimeter, u)

	_, err = ParseUnit("ft")
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestProductDimensions_String(t *testing.T) {
	d := ProductDimensions{Length: 60, Height: 120.5, Unit: UnitInch, PieceCount: 3}
	assert.Equal(t, "60x120.5 in × 3", d.String())
}
