package sp3

import (
	"time"

	"github.com/signalsfoundry/sp3-orbit-converter/core"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
	"github.com/signalsfoundry/sp3-orbit-converter/timescale"
)

// EpochContext is the state carried from line to line within one file.
// Records are transformed with the values set by the latest epoch header.
type EpochContext struct {
	// Time is the current epoch on the GPS scale.
	Time time.Time
	// System is the time system the file declared.
	System model.TimeSystem
	// Rotation takes source-frame vectors into the output frame.
	Rotation core.Mat3
	// AngularVelocity of the source frame, used for the Coriolis term.
	AngularVelocity core.Vec3
	// CM2CE is subtracted from source-frame positions.
	CM2CE core.Vec3
	// Satellite is the id of the latest position record.
	Satellite model.SatelliteID
}

// NewEpochContext returns the context a file starts with: GPS time system,
// identity rotation, no correction.
func NewEpochContext() EpochContext {
	return EpochContext{
		System:   model.TimeSystemGPS,
		Rotation: core.Identity(),
	}
}

// Position maps a source-frame position (m) into the output frame.
func (c *EpochContext) Position(raw core.Vec3) core.Vec3 {
	return c.Rotation.Apply(raw.Sub(c.CM2CE))
}

// Velocity maps a source-frame velocity (m/s) into the output frame, adding
// ω × position for the rotation of the source frame. position is the
// output-frame position of the same epoch.
func (c *EpochContext) Velocity(raw, position core.Vec3) core.Vec3 {
	return c.Rotation.Apply(raw).Add(c.AngularVelocity.Cross(position))
}

// Covariance maps a source-frame covariance (m²) into the output frame.
func (c *EpochContext) Covariance(raw core.Mat3) core.Mat3 {
	return c.Rotation.Similarity(raw)
}

// Pipeline holds the providers consulted once per epoch. Rotation and
// Gravity are optional.
type Pipeline struct {
	TimeScale timescale.Converter
	Rotation  core.EarthRotation
	Gravity   core.GravityField
}

// NormalizeTime brings a civil epoch read in system onto the GPS scale.
func (p Pipeline) NormalizeTime(civil time.Time, system model.TimeSystem) time.Time {
	switch system {
	case model.TimeSystemUTC:
		ts := p.TimeScale
		if ts == nil {
			ts = timescale.Default()
		}
		return ts.UTCToGPS(civil)
	case model.TimeSystemTAI:
		return timescale.TAIToGPS(civil)
	default:
		return civil
	}
}

// EnterEpoch sets c up for the epoch rec: normalised time, CM2CE correction
// and, with a rotation provider, the frame rotation and angular velocity.
func (p Pipeline) EnterEpoch(c *EpochContext, rec EpochRecord) {
	c.Time = p.NormalizeTime(rec.Civil, c.System)

	c.CM2CE = core.Vec3{}
	if p.Gravity != nil {
		c.CM2CE = p.Gravity.SphericalHarmonicsDegree1(c.Time).CenterOfMassOffset()
	}

	if p.Rotation != nil {
		c.Rotation = p.Rotation.RotationMatrix(c.Time).Transpose()
		c.AngularVelocity = p.Rotation.RotationAxis(c.Time)
	} else {
		c.Rotation = core.Identity()
		c.AngularVelocity = core.Vec3{}
	}
}
