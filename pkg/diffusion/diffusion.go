// Package diffusion estimates the binary liquid diffusion coefficient of a
// two-component mixture with a UNIFAC-derived correlation. The model is a
// fixed published correlation with nine fitted parameters; the formula is
// reproduced as given, not derived.
package diffusion

import (
	"errors"
	"math"
)

var (
	// ErrOutOfRangeFraction is returned when the mole fraction is outside [0, 1].
	ErrOutOfRangeFraction = errors.New("mole fraction must be between 0 and 1")
	// ErrNonPositiveTemperature is returned when the temperature is not strictly positive.
	ErrNonPositiveTemperature = errors.New("temperature must be positive")
	// ErrDegenerateInput is returned for pure-component inputs (Xa of exactly 0
	// or 1), where the correlation's log terms degenerate.
	ErrDegenerateInput = errors.New("mole fraction of exactly 0 or 1 degenerates the correlation")
)

// Constants holds the fitted parameters of the correlation: the two
// interaction energies (aAB, aBA), the molecular size parameters (lambda),
// the surface parameters (q), the infinite-dilution coefficients (DAB, DBA)
// and the experimental reference value the estimate is scored against.
type Constants struct {
	VExp    float64
	ABA     float64
	AAB     float64
	LambdaA float64
	LambdaB float64
	QA      float64
	QB      float64
	DAB     float64
	DBA     float64
}

// Default is the parameter set the application ships with.
var Default = Constants{
	VExp:    1.33e-05,
	ABA:     194.5302,
	AAB:     -10.7575,
	LambdaA: 1.127,
	LambdaB: 0.973,
	QA:      1.432,
	QB:      1.4,
	DAB:     2.1e-5,
	DBA:     2.67e-5,
}

// Result carries the estimate together with the echoed inputs. Erreur is the
// relative deviation, in percent, from the experimental reference value.
type Result struct {
	LnDab  float64
	Dab    float64
	Erreur float64
	Xa     float64
	T      float64
}

// Compute evaluates the correlation for a mole fraction of component A and an
// absolute temperature in kelvin. It is pure and deterministic: identical
// inputs always produce bit-identical results.
func Compute(xa, t float64) (Result, error) {
	return Default.Compute(xa, t)
}

// Compute evaluates the correlation with this parameter set.
func (c Constants) Compute(xa, t float64) (Result, error) {
	if xa < 0 || xa > 1 {
		return Result{}, ErrOutOfRangeFraction
	}
	if t <= 0 {
		return Result{}, ErrNonPositiveTemperature
	}
	// Xa/phiA and Xb/phiB vanish at the endpoints.
	if xa == 0 || xa == 1 {
		return Result{}, ErrDegenerateInput
	}

	xb := 1 - xa
	phiA := (xa * c.LambdaA) / (xa*c.LambdaA + xb*c.LambdaB)
	phiB := 1 - phiA
	tauxAB := math.Exp(-c.AAB / t)
	tauxBA := math.Exp(-c.ABA / t)
	tetaA := (xa * c.QA) / (xa*c.QA + xb*c.QB)
	tetaB := 1 - tetaA
	tetaAA := tetaA / (tetaA + tetaB*tauxBA)
	tetaBB := tetaB / (tetaB + tetaA*tauxAB)
	tetaAB := (tetaA * tauxAB) / (tetaA*tauxAB + tetaB)
	tetaBA := (tetaB * tauxBA) / (tetaB*tauxBA + tetaA)

	lnDab := xb*math.Log(c.DAB) +
		xa*math.Log(c.DBA) +
		2*(xa*math.Log(xa/phiA)+xb*math.Log(xb/phiB)) +
		2*xb*xa*((phiA/xa)*(1-c.LambdaA/c.LambdaB)+(phiB/xb)*(1-c.LambdaB/c.LambdaA)) +
		xb*c.QA*((1-tetaBA*tetaBA)*math.Log(tauxBA)+(1-tetaBB*tetaBB)*tauxAB*math.Log(tauxAB)) +
		xa*c.QB*((1-tetaAB*tetaAB)*math.Log(tauxAB)+(1-tetaAA*tetaAA)*tauxBA*math.Log(tauxBA))

	dab := math.Exp(lnDab)
	erreur := math.Abs(dab-c.VExp) / c.VExp * 100

	return Result{
		LnDab:  lnDab,
		Dab:    dab,
		Erreur: erreur,
		Xa:     xa,
		T:      t,
	}, nil
}
