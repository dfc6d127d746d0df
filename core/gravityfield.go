package core

import (
	"math"
	"time"
)

// J2000 is the reference epoch for tidal arguments.
var J2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// Degree1Harmonics holds the fully normalised degree-0/1 spherical harmonic
// coefficients of a gravity field together with its reference radius (m).
type Degree1Harmonics struct {
	R   float64
	C00 float64
	C10 float64
	C11 float64
	S11 float64
}

// CenterOfMassOffset returns the geocentre shift implied by the degree-1
// coefficients: sqrt(3)·R·(c11, s11, c10).
func (h Degree1Harmonics) CenterOfMassOffset() Vec3 {
	k := math.Sqrt(3) * h.R
	return Vec3{X: k * h.C11, Y: k * h.S11, Z: k * h.C10}
}

// GravityField provides degree-1 spherical harmonics as a function of time.
type GravityField interface {
	SphericalHarmonicsDegree1(t time.Time) Degree1Harmonics
}

// StaticGravityField returns the same coefficients at every epoch.
type StaticGravityField struct {
	Coefficients Degree1Harmonics
}

// SphericalHarmonicsDegree1 implements GravityField.
func (g StaticGravityField) SphericalHarmonicsDegree1(time.Time) Degree1Harmonics {
	return g.Coefficients
}

// TideConstituent is one periodic term of a degree-1 tidal model. Each
// coefficient varies as cos·cos(θ) + sin·sin(θ) with θ = ω·(t − J2000) + phase.
type TideConstituent struct {
	Name      string
	Frequency float64 // rad/s
	Phase     float64 // rad

	C10Cos, C10Sin float64
	C11Cos, C11Sin float64
	S11Cos, S11Sin float64
}

// TidalGravityField adds periodic constituents on top of a static background,
// e.g. the degree-1 part of an ocean tide model.
type TidalGravityField struct {
	Background   Degree1Harmonics
	Constituents []TideConstituent
}

// SphericalHarmonicsDegree1 implements GravityField.
func (g *TidalGravityField) SphericalHarmonicsDegree1(t time.Time) Degree1Harmonics {
	h := g.Background
	dt := t.Sub(J2000).Seconds()
	for _, c := range g.Constituents {
		theta := c.Frequency*dt + c.Phase
		cos, sin := math.Cos(theta), math.Sin(theta)
		h.C10 += c.C10Cos*cos + c.C10Sin*sin
		h.C11 += c.C11Cos*cos + c.C11Sin*sin
		h.S11 += c.S11Cos*cos + c.S11Sin*sin
	}
	return h
}
