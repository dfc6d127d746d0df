package core

import (
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// EarthAngularVelocity is the nominal rotation rate of the Earth (rad/s).
const EarthAngularVelocity = 7.292115e-5

// EarthRotation relates the celestial (CRF) and terrestrial (TRF) frames.
type EarthRotation interface {
	// RotationMatrix returns the CRF -> TRF rotation at t.
	RotationMatrix(t time.Time) Mat3
	// RotationAxis returns the Earth's angular velocity vector at t, in CRF.
	RotationAxis(t time.Time) Vec3
}

// GMSTRotation models the Earth as spinning about the CRF z axis at the
// Greenwich mean sidereal angle. Polar motion, precession and nutation are
// ignored, which keeps it well below the metre level only over short arcs.
type GMSTRotation struct {
	// ToUT converts the (GPS scale) epoch times handed to the model into UT.
	// When nil the times are used as given.
	ToUT func(time.Time) time.Time
}

// NewGMSTRotation constructs a GMST rotation model using toUT to bring epoch
// times onto a UT scale before evaluating sidereal time.
func NewGMSTRotation(toUT func(time.Time) time.Time) *GMSTRotation {
	return &GMSTRotation{ToUT: toUT}
}

// RotationMatrix implements EarthRotation.
func (m *GMSTRotation) RotationMatrix(t time.Time) Mat3 {
	return RotationZ(m.GMST(t))
}

// RotationAxis implements EarthRotation.
func (m *GMSTRotation) RotationAxis(time.Time) Vec3 {
	return Vec3{Z: EarthAngularVelocity}
}

// GMST returns the Greenwich mean sidereal angle (radians) at t.
// go-satellite takes whole seconds, so the fractional part is folded into
// the Julian date directly.
func (m *GMSTRotation) GMST(t time.Time) float64 {
	if m.ToUT != nil {
		t = m.ToUT(t)
	}
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	jd += float64(t.Nanosecond()) / 1e9 / 86400.0
	return satellite.ThetaG_JD(jd)
}
