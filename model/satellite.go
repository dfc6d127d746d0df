package model

// SatelliteID is the 3-character SP3 satellite identifier (e.g. "G01",
// "L09"). It is case sensitive.
type SatelliteID string

// AllSatellites is the identifier that selects every satellite found.
const AllSatellites = "<all>"

// TimeSystem is the time scale an SP3 file declares for its epochs.
type TimeSystem int

const (
	TimeSystemGPS TimeSystem = iota
	TimeSystemUTC
	TimeSystemTAI
)

func (s TimeSystem) String() string {
	switch s {
	case TimeSystemUTC:
		return "UTC"
	case TimeSystemTAI:
		return "TAI"
	default:
		return "GPS"
	}
}

// ParseTimeSystem maps a 3-character SP3 tag onto a TimeSystem. The second
// result is false for tags other than GPS, UTC and TAI; the returned system
// is then GPS.
func ParseTimeSystem(tag string) (TimeSystem, bool) {
	switch tag {
	case "GPS":
		return TimeSystemGPS, true
	case "UTC":
		return TimeSystemUTC, true
	case "TAI":
		return TimeSystemTAI, true
	default:
		return TimeSystemGPS, false
	}
}
