// Package sp3 reads orbits, clocks and position covariances from SP3
// ephemeris files.
//
// Lines are classified by prefix, decoded from fixed columns into tagged
// records, transformed with the current EpochContext and stored per
// satellite in a kb.SeriesStore.
package sp3

import "strings"

// Kind is the record kind of one SP3 line.
type Kind int

const (
	KindUnknown Kind = iota
	KindHeader
	KindSatelliteList
	KindTimeSystem
	KindEpochHeader
	KindPosition
	KindVelocity
	KindPositionCovariance
	KindEndOfFile
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindSatelliteList:
		return "satellite_list"
	case KindTimeSystem:
		return "time_system"
	case KindEpochHeader:
		return "epoch"
	case KindPosition:
		return "position"
	case KindVelocity:
		return "velocity"
	case KindPositionCovariance:
		return "position_covariance"
	case KindEndOfFile:
		return "eof"
	default:
		return "unknown"
	}
}

// Classify returns the record kind of line from its prefix alone.
// A KindTimeSystem line is the first of a two-line record; the caller
// consumes the companion line.
func Classify(line string) Kind {
	switch {
	case strings.HasPrefix(line, "EOF"):
		return KindEndOfFile
	case strings.HasPrefix(line, "EP"):
		return KindPositionCovariance
	case strings.HasPrefix(line, "* "):
		return KindEpochHeader
	case strings.HasPrefix(line, "#"),
		strings.HasPrefix(line, "/*"),
		strings.HasPrefix(line, "%f"),
		strings.HasPrefix(line, "%i"):
		return KindHeader
	case strings.HasPrefix(line, "%c"):
		return KindTimeSystem
	case strings.HasPrefix(line, "+"):
		return KindSatelliteList
	case strings.HasPrefix(line, "P"):
		return KindPosition
	case strings.HasPrefix(line, "V"):
		return KindVelocity
	default:
		return KindUnknown
	}
}
