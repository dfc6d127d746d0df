package sp3

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/sp3-orbit-converter/core"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
)

// fixedRotation rotates by a constant angle and counts calls.
type fixedRotation struct {
	angle float64
	calls int
}

func (r *fixedRotation) RotationMatrix(time.Time) core.Mat3 {
	r.calls++
	return core.RotationZ(r.angle)
}

func (r *fixedRotation) RotationAxis(time.Time) core.Vec3 {
	return core.Vec3{Z: core.EarthAngularVelocity}
}

func vecApprox(a, b core.Vec3, tol float64) bool {
	return approx(a.X, b.X, tol) && approx(a.Y, b.Y, tol) && approx(a.Z, b.Z, tol)
}

func TestNormalizeTimeUTCAndTAIAgree(t *testing.T) {
	var p Pipeline
	utc := p.NormalizeTime(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), model.TimeSystemUTC)
	tai := p.NormalizeTime(time.Date(2020, 1, 1, 0, 0, 37, 0, time.UTC), model.TimeSystemTAI)
	want := time.Date(2020, 1, 1, 0, 0, 18, 0, time.UTC)
	if !utc.Equal(want) || !tai.Equal(want) {
		t.Fatalf("utc -> %v, tai -> %v, want %v", utc, tai, want)
	}
	gps := p.NormalizeTime(want, model.TimeSystemGPS)
	if !gps.Equal(want) {
		t.Fatalf("gps -> %v, want unchanged", gps)
	}
}

func TestEnterEpochWithoutProviders(t *testing.T) {
	var p Pipeline
	c := NewEpochContext()
	p.EnterEpoch(&c, EpochRecord{Civil: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})

	raw := core.Vec3{X: 7e6, Y: 1, Z: -2}
	if got := c.Position(raw); got != raw {
		t.Fatalf("Position = %+v, want unchanged %+v", got, raw)
	}
	v := core.Vec3{X: 1, Y: 2, Z: 3}
	if got := c.Velocity(v, raw); got != v {
		t.Fatalf("Velocity = %+v, want unchanged %+v", got, v)
	}
}

func TestEnterEpochAppliesRotationAndCorrection(t *testing.T) {
	rot := &fixedRotation{angle: math.Pi / 2}
	p := Pipeline{
		Rotation: rot,
		Gravity: core.StaticGravityField{Coefficients: core.Degree1Harmonics{
			R:   1 / math.Sqrt(3),
			C11: 2,
			S11: 0,
			C10: 0,
		}},
	}
	c := NewEpochContext()
	p.EnterEpoch(&c, EpochRecord{Civil: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})
	if rot.calls != 1 {
		t.Fatalf("rotation evaluated %d times, want once per epoch", rot.calls)
	}
	if !vecApprox(c.CM2CE, core.Vec3{X: 2}, 1e-12) {
		t.Fatalf("CM2CE = %+v, want (2,0,0)", c.CM2CE)
	}

	// (12,0,0) - (2,0,0) rotated by the transpose of RotationZ(90°).
	pos := c.Position(core.Vec3{X: 12})
	if !vecApprox(pos, core.Vec3{Y: 10}, 1e-9) {
		t.Fatalf("Position = %+v, want (0,10,0)", pos)
	}

	vel := c.Velocity(core.Vec3{X: 1}, pos)
	want := core.Vec3{X: -core.EarthAngularVelocity * 10, Y: 1}
	if !vecApprox(vel, want, 1e-9) {
		t.Fatalf("Velocity = %+v, want %+v", vel, want)
	}

	cov := c.Covariance(core.Mat3{{1, 0, 0}, {0, 4, 0}, {0, 0, 9}})
	if !approx(cov[0][0], 4, 1e-12) || !approx(cov[1][1], 1, 1e-12) || !approx(cov[2][2], 9, 1e-12) {
		t.Fatalf("Covariance = %v", cov)
	}
}
