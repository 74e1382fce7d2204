package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanDiameter(t *testing.T) {
	assert.Equal(t, 300.0, MeanDiameter(200, 400))
	assert.Equal(t, 5.0, MeanDiameter(5, 5))
}

func TestSphereMass(t *testing.T) {
	t.Run("300 m stony body", func(t *testing.T) {
		// (π/6)·300³ = 1.41372e7 m³
		mass := SphereMass(300, DensityKGM3)
		assert.InEpsilon(t, 4.2411500823e10, mass, 1e-9)
	})

	t.Run("scales with the cube of the diameter", func(t *testing.T) {
		assert.InEpsilon(t, 8.0, SphereMass(20, DensityKGM3)/SphereMass(10, DensityKGM3), 1e-12)
	})

	t.Run("zero diameter", func(t *testing.T) {
		assert.Equal(t, 0.0, SphereMass(0, DensityKGM3))
	})
}

func TestKineticEnergyKT(t *testing.T) {
	t.Run("one kiloton", func(t *testing.T) {
		// ½·m·(1000 m/s)² = 4.184e12 J when m = 8.368e6 kg
		assert.InEpsilon(t, 1.0, KineticEnergyKT(8.368e6, 1), 1e-12)
	})

	t.Run("300 m body at 20 km/s", func(t *testing.T) {
		mass := SphereMass(300, DensityKGM3)
		want := 0.5 * mass * math.Pow(20_000, 2) / JoulesPerKilotonTNT
		assert.InEpsilon(t, want, KineticEnergyKT(mass, 20), 1e-12)
		assert.InEpsilon(t, 2.0273e6, KineticEnergyKT(mass, 20), 1e-4)
	})

	t.Run("zero velocity", func(t *testing.T) {
		assert.Equal(t, 0.0, KineticEnergyKT(1e9, 0))
	})
}
