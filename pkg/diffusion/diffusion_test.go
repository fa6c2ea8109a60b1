package diffusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_GoldenValue(t *testing.T) {
	res, err := Compute(0.5, 298.15)
	require.NoError(t, err)

	// Reference run of the exact formula at equimolar composition, 25 C.
	assert.InDelta(t, -11.175511572215445, res.LnDab, 1e-12)
	assert.InEpsilon(t, 1.4013189394832653e-05, res.Dab, 1e-12)
	assert.InDelta(t, 5.362326276937243, res.Erreur, 1e-9)
	assert.Equal(t, 0.5, res.Xa)
	assert.Equal(t, 298.15, res.T)
}

func TestCompute_MoreReferencePoints(t *testing.T) {
	cases := []struct {
		xa, temp   float64
		lnDab, dab float64
	}{
		{0.25, 298.15, -11.238754178650215, 1.3154400998368748e-05},
		{0.25, 313.0, -11.212052952549666, 1.351037090109942e-05},
		{0.7, 310.0, -10.954817390307676, 1.7473634898226136e-05},
		{0.1, 298.15, -11.058935462660152, 1.574582255211179e-05},
		{0.9, 350.0, -10.673879242545071, 2.31415873115851e-05},
	}
	for _, tc := range cases {
		res, err := Compute(tc.xa, tc.temp)
		require.NoError(t, err)
		assert.InDelta(t, tc.lnDab, res.LnDab, 1e-11, "lnDab at Xa=%v T=%v", tc.xa, tc.temp)
		assert.InEpsilon(t, tc.dab, res.Dab, 1e-11, "Dab at Xa=%v T=%v", tc.xa, tc.temp)
	}
}

func TestCompute_ResultIsFiniteAndPositive(t *testing.T) {
	res, err := Compute(0.5, 298.15)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(res.Dab) || math.IsInf(res.Dab, 0))
	assert.Greater(t, res.Dab, 0.0)
	assert.GreaterOrEqual(t, res.Erreur, 0.0)
}

func TestCompute_Validation(t *testing.T) {
	_, err := Compute(-0.1, 298.15)
	assert.ErrorIs(t, err, ErrOutOfRangeFraction)

	_, err = Compute(1.1, 298.15)
	assert.ErrorIs(t, err, ErrOutOfRangeFraction)

	_, err = Compute(0.5, 0)
	assert.ErrorIs(t, err, ErrNonPositiveTemperature)

	_, err = Compute(0.5, -273.15)
	assert.ErrorIs(t, err, ErrNonPositiveTemperature)
}

func TestCompute_DegenerateEndpoints(t *testing.T) {
	_, err := Compute(0, 298.15)
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = Compute(1, 298.15)
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute(0.37, 305.2)
	require.NoError(t, err)
	b, err := Compute(0.37, 305.2)
	require.NoError(t, err)

	// Bit-identical, not merely close.
	assert.Equal(t, a, b)
}
