// Package timescale converts epochs between the UTC, TAI and GPS time scales.
//
// Epochs are carried as time.Time values whose wall-clock fields read in the
// scale being described; the location is always UTC and only acts as a label.
package timescale

import (
	"sort"
	"time"
)

// TAIMinusGPS is the constant offset between TAI and GPS time.
const TAIMinusGPS = 19 * time.Second

// Converter maps UTC epochs onto the GPS time scale.
type Converter interface {
	UTCToGPS(t time.Time) time.Time
}

// LeapSecond marks the UTC instant from which TAI-UTC equals Offset.
type LeapSecond struct {
	Since  time.Time
	Offset time.Duration
}

// LeapSecondTable is a leap-second aware Converter. Entries must be sorted
// by Since.
type LeapSecondTable struct {
	entries []LeapSecond
}

// NewLeapSecondTable builds a table from entries, sorting them by date.
func NewLeapSecondTable(entries []LeapSecond) *LeapSecondTable {
	sorted := append([]LeapSecond(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Since.Before(sorted[j].Since) })
	return &LeapSecondTable{entries: sorted}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var defaultLeapSeconds = []LeapSecond{
	{day(1972, time.January, 1), 10 * time.Second},
	{day(1972, time.July, 1), 11 * time.Second},
	{day(1973, time.January, 1), 12 * time.Second},
	{day(1974, time.January, 1), 13 * time.Second},
	{day(1975, time.January, 1), 14 * time.Second},
	{day(1976, time.January, 1), 15 * time.Second},
	{day(1977, time.January, 1), 16 * time.Second},
	{day(1978, time.January, 1), 17 * time.Second},
	{day(1979, time.January, 1), 18 * time.Second},
	{day(1980, time.January, 1), 19 * time.Second},
	{day(1981, time.July, 1), 20 * time.Second},
	{day(1982, time.July, 1), 21 * time.Second},
	{day(1983, time.July, 1), 22 * time.Second},
	{day(1985, time.July, 1), 23 * time.Second},
	{day(1988, time.January, 1), 24 * time.Second},
	{day(1990, time.January, 1), 25 * time.Second},
	{day(1991, time.January, 1), 26 * time.Second},
	{day(1992, time.July, 1), 27 * time.Second},
	{day(1993, time.July, 1), 28 * time.Second},
	{day(1994, time.July, 1), 29 * time.Second},
	{day(1996, time.January, 1), 30 * time.Second},
	{day(1997, time.July, 1), 31 * time.Second},
	{day(1999, time.January, 1), 32 * time.Second},
	{day(2006, time.January, 1), 33 * time.Second},
	{day(2009, time.January, 1), 34 * time.Second},
	{day(2012, time.July, 1), 35 * time.Second},
	{day(2015, time.July, 1), 36 * time.Second},
	{day(2017, time.January, 1), 37 * time.Second},
}

// Default returns the table of leap seconds announced up to 2017.
// No further leap seconds had been announced when it was last updated.
func Default() *LeapSecondTable {
	return NewLeapSecondTable(defaultLeapSeconds)
}

// TAIMinusUTC returns TAI-UTC at the given UTC epoch. Epochs before the
// first entry use the first offset.
func (l *LeapSecondTable) TAIMinusUTC(utc time.Time) time.Duration {
	if len(l.entries) == 0 {
		return 0
	}
	i := sort.Search(len(l.entries), func(i int) bool { return l.entries[i].Since.After(utc) })
	if i == 0 {
		return l.entries[0].Offset
	}
	return l.entries[i-1].Offset
}

// GPSMinusUTC returns GPS-UTC at the given UTC epoch.
func (l *LeapSecondTable) GPSMinusUTC(utc time.Time) time.Duration {
	return l.TAIMinusUTC(utc) - TAIMinusGPS
}

// UTCToGPS implements Converter.
func (l *LeapSecondTable) UTCToGPS(utc time.Time) time.Time {
	return utc.Add(l.GPSMinusUTC(utc))
}

// GPSToUTC is the inverse of UTCToGPS away from the leap second itself.
func (l *LeapSecondTable) GPSToUTC(gps time.Time) time.Time {
	utc := gps.Add(-l.GPSMinusUTC(gps))
	return gps.Add(-l.GPSMinusUTC(utc))
}

// TAIToGPS maps a TAI epoch onto GPS time.
func TAIToGPS(tai time.Time) time.Time {
	return tai.Add(-TAIMinusGPS)
}
