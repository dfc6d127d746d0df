package core

import (
	"math"
	"testing"
	"time"
)

func TestDegree1CenterOfMassOffset(t *testing.T) {
	h := Degree1Harmonics{R: 6378136.3, C00: 1, C10: 3e-10, C11: 1e-10, S11: -2e-10}
	got := h.CenterOfMassOffset()

	k := math.Sqrt(3) * h.R
	want := Vec3{X: k * 1e-10, Y: k * -2e-10, Z: k * 3e-10}
	if got.Sub(want).Norm() > 1e-15 {
		t.Fatalf("CenterOfMassOffset = %+v, want %+v", got, want)
	}
}

func TestStaticGravityField_IsConstant(t *testing.T) {
	g := StaticGravityField{Coefficients: Degree1Harmonics{R: 1, C10: 2}}
	a := g.SphericalHarmonicsDegree1(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	b := g.SphericalHarmonicsDegree1(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	if a != b {
		t.Fatalf("static field changed: %+v vs %+v", a, b)
	}
}

func TestTidalGravityField_VariesWithPeriod(t *testing.T) {
	period := 12 * time.Hour
	g := &TidalGravityField{
		Background: Degree1Harmonics{R: 6378136.3, C00: 1},
		Constituents: []TideConstituent{{
			Name:      "semidiurnal",
			Frequency: 2 * math.Pi / period.Seconds(),
			C10Cos:    1e-10,
		}},
	}

	at0 := g.SphericalHarmonicsDegree1(J2000)
	if math.Abs(at0.C10-1e-10) > 1e-20 {
		t.Fatalf("C10 at J2000 = %v, want 1e-10", at0.C10)
	}
	half := g.SphericalHarmonicsDegree1(J2000.Add(period / 2))
	if math.Abs(half.C10+1e-10) > 1e-20 {
		t.Fatalf("C10 after half a period = %v, want -1e-10", half.C10)
	}
	full := g.SphericalHarmonicsDegree1(J2000.Add(period))
	if math.Abs(full.C10-at0.C10) > 1e-20 {
		t.Fatalf("C10 not periodic: %v vs %v", full.C10, at0.C10)
	}
	if full.C00 != 1 || full.R != 6378136.3 {
		t.Fatalf("background not preserved: %+v", full)
	}
}
