package model

import (
	"time"

	"github.com/signalsfoundry/sp3-orbit-converter/core"
)

// OrbitEpoch is one sample of a satellite orbit in the output frame.
// Times are on the GPS scale.
type OrbitEpoch struct {
	Time     time.Time
	Position core.Vec3 // metres

	// Velocity is nil until a velocity record has been attached.
	Velocity *core.Vec3 // metres per second
}

// HasVelocity reports whether a velocity was attached to the epoch.
func (e OrbitEpoch) HasVelocity() bool { return e.Velocity != nil }

// ClockEpoch is one satellite clock bias sample.
type ClockEpoch struct {
	Time time.Time
	Bias float64 // seconds
}

// CovarianceEpoch is a 3x3 position covariance (m²) in the output frame.
type CovarianceEpoch struct {
	Time       time.Time
	Covariance core.Mat3
}

// OrbitSeries, ClockSeries and CovarianceSeries keep input order.
type (
	OrbitSeries      []OrbitEpoch
	ClockSeries      []ClockEpoch
	CovarianceSeries []CovarianceEpoch
)
