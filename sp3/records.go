package sp3

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/sp3-orbit-converter/core"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
)

// ClockSentinel marks "no clock data": clock values at or above it are
// dropped.
const ClockSentinel = 999999.0

// Unit conversions applied while decoding.
const (
	kmToM     = 1e3
	dmToM     = 0.1
	usToS     = 1e-6
	mmToM     = 1e-3
	corrToCov = 1e-13 // 1e-7 correlation scale times two mm -> m factors
)

// satelliteSlots is the number of 3-character slots on a "+" or "++" line.
const satelliteSlots = 17

// Record is the decoded content of one line.
type Record interface {
	Kind() Kind
}

// TimeSystemRecord is the first line of a "%c" pair.
type TimeSystemRecord struct {
	Tag    string
	System model.TimeSystem
	Known  bool
}

// SatelliteListRecord is a "+" line. Slots keeps positional alignment with
// the matching "++" line; padding slots are empty.
type SatelliteListRecord struct {
	Slots []model.SatelliteID
}

// AccuracyRecord is a "++" line of orbit-accuracy exponents.
type AccuracyRecord struct {
	Slots []int
}

// EpochRecord is a "* " line. Civil reads in the file's declared time system.
type EpochRecord struct {
	Civil time.Time
}

// PositionRecord is a "P" line with units already converted.
type PositionRecord struct {
	Satellite model.SatelliteID
	Position  core.Vec3 // metres, source frame
	ClockBias float64   // seconds, valid when HasClock
	HasClock  bool
}

// VelocityRecord is a "V" line with units already converted.
type VelocityRecord struct {
	Satellite model.SatelliteID
	Velocity  core.Vec3 // metres per second, source frame
}

// CovarianceRecord is an "EP" line assembled into a symmetric matrix (m²).
type CovarianceRecord struct {
	Covariance core.Mat3
}

func (TimeSystemRecord) Kind() Kind    { return KindTimeSystem }
func (SatelliteListRecord) Kind() Kind { return KindSatelliteList }
func (AccuracyRecord) Kind() Kind      { return KindSatelliteList }
func (EpochRecord) Kind() Kind         { return KindEpochHeader }
func (PositionRecord) Kind() Kind      { return KindPosition }
func (VelocityRecord) Kind() Kind      { return KindVelocity }
func (CovarianceRecord) Kind() Kind    { return KindPositionCovariance }

// Decode decodes line as a record of kind k. Kinds that carry no data
// (header, unknown, end of file) decode to a nil record.
func Decode(k Kind, line string) (Record, error) {
	switch k {
	case KindTimeSystem:
		return DecodeTimeSystem(line)
	case KindSatelliteList:
		if strings.HasPrefix(line, "++") {
			return DecodeAccuracy(line)
		}
		return DecodeSatelliteList(line)
	case KindEpochHeader:
		return DecodeEpoch(line)
	case KindPosition:
		return DecodePosition(line)
	case KindVelocity:
		return DecodeVelocity(line)
	case KindPositionCovariance:
		return DecodeCovariance(line)
	default:
		return nil, nil
	}
}

// DecodeTimeSystem reads the time-system tag in columns 10-12.
func DecodeTimeSystem(line string) (TimeSystemRecord, error) {
	tag, err := field(line, 9, 3)
	if err != nil {
		return TimeSystemRecord{}, err
	}
	sys, known := model.ParseTimeSystem(tag)
	return TimeSystemRecord{Tag: tag, System: sys, Known: known}, nil
}

// DecodeSatelliteList reads up to 17 satellite ids from columns 10-60.
// Padding slots ("  0" or blank) are kept as empty ids.
func DecodeSatelliteList(line string) (SatelliteListRecord, error) {
	var rec SatelliteListRecord
	for k := 0; k < satelliteSlots; k++ {
		pos := 9 + 3*k
		if pos >= len(line) {
			break
		}
		raw, _ := field(line, pos, 3)
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || trimmed == "0" || len(raw) < 3 {
			rec.Slots = append(rec.Slots, "")
			continue
		}
		rec.Slots = append(rec.Slots, model.SatelliteID(raw))
	}
	return rec, nil
}

// DecodeAccuracy reads up to 17 orbit-accuracy exponents from columns 10-60.
// Blank slots read as zero.
func DecodeAccuracy(line string) (AccuracyRecord, error) {
	var rec AccuracyRecord
	for k := 0; k < satelliteSlots; k++ {
		pos := 9 + 3*k
		if pos >= len(line) {
			break
		}
		raw, _ := field(line, pos, 3)
		if strings.TrimSpace(raw) == "" {
			rec.Slots = append(rec.Slots, 0)
			continue
		}
		v, err := intField(line, pos, 3)
		if err != nil {
			return AccuracyRecord{}, err
		}
		rec.Slots = append(rec.Slots, v)
	}
	return rec, nil
}

// DecodeEpoch reads the civil epoch of a "* " line.
func DecodeEpoch(line string) (EpochRecord, error) {
	var parts [5]int
	for i, f := range [5]struct{ pos, width int }{{3, 4}, {8, 2}, {11, 2}, {14, 2}, {17, 2}} {
		v, err := intField(line, f.pos, f.width)
		if err != nil {
			return EpochRecord{}, err
		}
		parts[i] = v
	}
	sec, err := floatField(line, 20, 11)
	if err != nil {
		return EpochRecord{}, err
	}
	civil := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.UTC)
	civil = civil.Add(time.Duration(math.Round(sec * 1e9)))
	return EpochRecord{Civil: civil}, nil
}

func readVector(line string, scale float64) (core.Vec3, error) {
	var xyz [3]float64
	for i, pos := range [3]int{4, 18, 32} {
		v, err := floatField(line, pos, 14)
		if err != nil {
			return core.Vec3{}, err
		}
		xyz[i] = v
	}
	return core.Vec3{X: xyz[0] * scale, Y: xyz[1] * scale, Z: xyz[2] * scale}, nil
}

func readSatellite(line string) (model.SatelliteID, error) {
	raw, err := field(line, 1, 3)
	if err != nil {
		return "", err
	}
	if len(raw) < 3 {
		return "", &fieldError{"satellite id", raw}
	}
	return model.SatelliteID(raw), nil
}

// DecodePosition reads a "P" line: X/Y/Z in km converted to metres and the
// clock in microseconds converted to seconds unless it is the sentinel.
func DecodePosition(line string) (PositionRecord, error) {
	sat, err := readSatellite(line)
	if err != nil {
		return PositionRecord{}, err
	}
	pos, err := readVector(line, kmToM)
	if err != nil {
		return PositionRecord{}, err
	}
	clk, err := floatField(line, 46, 14)
	if err != nil {
		return PositionRecord{}, err
	}
	rec := PositionRecord{Satellite: sat, Position: pos}
	if clk < ClockSentinel {
		rec.ClockBias = clk * usToS
		rec.HasClock = true
	}
	return rec, nil
}

// DecodeVelocity reads a "V" line: X/Y/Z in dm/s converted to m/s.
// The clock-rate field is not used.
func DecodeVelocity(line string) (VelocityRecord, error) {
	sat, err := readSatellite(line)
	if err != nil {
		return VelocityRecord{}, err
	}
	vel, err := readVector(line, dmToM)
	if err != nil {
		return VelocityRecord{}, err
	}
	return VelocityRecord{Satellite: sat, Velocity: vel}, nil
}

// DecodeCovariance reads an "EP" line: standard deviations in mm and
// correlations in units of 1e-7, assembled into a symmetric covariance.
func DecodeCovariance(line string) (CovarianceRecord, error) {
	cols := [6]struct{ pos, width int }{
		{4, 4},  // sigma x
		{9, 4},  // sigma y
		{14, 4}, // sigma z
		{27, 8}, // corr xy
		{36, 8}, // corr xz
		{54, 8}, // corr yz
	}
	var v [6]float64
	for i, c := range cols {
		f, err := floatField(line, c.pos, c.width)
		if err != nil {
			return CovarianceRecord{}, err
		}
		v[i] = f
	}
	sx, sy, sz := v[0], v[1], v[2]
	xy := corrToCov * v[3] * sx * sy
	xz := corrToCov * v[4] * sx * sz
	yz := corrToCov * v[5] * sy * sz

	return CovarianceRecord{Covariance: core.Mat3{
		{sq(mmToM * sx), xy, xz},
		{xy, sq(mmToM * sy), yz},
		{xz, yz, sq(mmToM * sz)},
	}}, nil
}

func sq(x float64) float64 { return x * x }

type fieldError struct {
	name string
	raw  string
}

func (e *fieldError) Error() string {
	return ErrMalformedField.Error() + ": " + e.name + " " + strconv.Quote(e.raw)
}

func (e *fieldError) Unwrap() error { return ErrMalformedField }
