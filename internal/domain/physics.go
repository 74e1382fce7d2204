package domain

import "math"

const (
	// DensityKGM3 is a typical stony-asteroid bulk density.
	DensityKGM3 = 3000.0

	// JoulesPerKilotonTNT converts joules to kilotons of TNT.
	JoulesPerKilotonTNT = 4.184e12

	// KilometersPerAU is the IAU astronomical unit in kilometers.
	KilometersPerAU = 149_597_870.7
)

// MeanDiameter averages the published minimum and maximum diameter estimates.
func MeanDiameter(minM, maxM float64) float64 {
	return (minM + maxM) / 2
}

// SphereMass returns the mass in kilograms of a uniform sphere of the given
// diameter (meters) and density (kg/m³).
func SphereMass(diameterM, densityKGM3 float64) float64 {
	r := diameterM / 2
	volume := 4.0 / 3.0 * math.Pi * r * r * r
	return volume * densityKGM3
}

// KineticEnergyKT returns classical kinetic energy in kilotons of TNT for a
// mass in kilograms moving at velocityKMS kilometers per second.
func KineticEnergyKT(massKG, velocityKMS float64) float64 {
	v := velocityKMS * 1000
	joules := 0.5 * massKG * v * v
	return joules / JoulesPerKilotonTNT
}
