package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/sp3-orbit-converter/core"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
)

// ErrNoOrbitEntry is returned when a velocity is attached to a satellite
// that has no orbit entry yet.
var ErrNoOrbitEntry = errors.New("no orbit entry for satellite")

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventOrbitAppended EventType = iota
	EventVelocityAttached
	EventClockAppended
	EventCovarianceAppended
)

func (t EventType) String() string {
	switch t {
	case EventOrbitAppended:
		return "orbit"
	case EventVelocityAttached:
		return "velocity"
	case EventClockAppended:
		return "clock"
	case EventCovarianceAppended:
		return "covariance"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers after every mutation.
type Event struct {
	Type      EventType
	Satellite model.SatelliteID
	Time      time.Time
}

// SeriesStore accumulates per-satellite orbit, clock and covariance series
// across all input files of a run. Each series keeps insertion order.
type SeriesStore struct {
	mu sync.RWMutex

	orbits map[model.SatelliteID]model.OrbitSeries
	clocks map[model.SatelliteID]model.ClockSeries
	covs   map[model.SatelliteID]model.CovarianceSeries

	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(Event)
}

// NewSeriesStore constructs an empty store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{
		orbits: make(map[model.SatelliteID]model.OrbitSeries),
		clocks: make(map[model.SatelliteID]model.ClockSeries),
		covs:   make(map[model.SatelliteID]model.CovarianceSeries),
	}
}

// AppendOrbit adds a new orbit epoch (without velocity) for id.
func (s *SeriesStore) AppendOrbit(id model.SatelliteID, e model.OrbitEpoch) {
	s.mu.Lock()
	s.orbits[id] = append(s.orbits[id], e)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, Event{Type: EventOrbitAppended, Satellite: id, Time: e.Time})
}

// LastOrbit returns the most recently appended orbit epoch for id.
func (s *SeriesStore) LastOrbit(id model.SatelliteID) (model.OrbitEpoch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.orbits[id]
	if len(series) == 0 {
		return model.OrbitEpoch{}, false
	}
	return series[len(series)-1], true
}

// SetLastVelocity attaches v to the most recently appended orbit epoch of id.
// It never creates an entry; ErrNoOrbitEntry is returned when there is none.
func (s *SeriesStore) SetLastVelocity(id model.SatelliteID, v core.Vec3) error {
	s.mu.Lock()
	series := s.orbits[id]
	if len(series) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w %q", ErrNoOrbitEntry, id)
	}
	last := &series[len(series)-1]
	last.Velocity = &v
	at := last.Time
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, Event{Type: EventVelocityAttached, Satellite: id, Time: at})
	return nil
}

// AppendClock adds a clock epoch for id.
func (s *SeriesStore) AppendClock(id model.SatelliteID, e model.ClockEpoch) {
	s.mu.Lock()
	s.clocks[id] = append(s.clocks[id], e)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, Event{Type: EventClockAppended, Satellite: id, Time: e.Time})
}

// AppendCovariance adds a covariance epoch for id.
func (s *SeriesStore) AppendCovariance(id model.SatelliteID, e model.CovarianceEpoch) {
	s.mu.Lock()
	s.covs[id] = append(s.covs[id], e)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, Event{Type: EventCovarianceAppended, Satellite: id, Time: e.Time})
}

// Orbit returns a snapshot copy of the orbit series of id.
func (s *SeriesStore) Orbit(id model.SatelliteID) model.OrbitSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(model.OrbitSeries(nil), s.orbits[id]...)
}

// Clock returns a snapshot copy of the clock series of id.
func (s *SeriesStore) Clock(id model.SatelliteID) model.ClockSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(model.ClockSeries(nil), s.clocks[id]...)
}

// Covariance returns a snapshot copy of the covariance series of id.
func (s *SeriesStore) Covariance(id model.SatelliteID) model.CovarianceSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(model.CovarianceSeries(nil), s.covs[id]...)
}

// Satellites returns every satellite id with at least one entry in any
// series, sorted.
func (s *SeriesStore) Satellites() []model.SatelliteID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[model.SatelliteID]struct{})
	for id := range s.orbits {
		seen[id] = struct{}{}
	}
	for id := range s.clocks {
		seen[id] = struct{}{}
	}
	for id := range s.covs {
		seen[id] = struct{}{}
	}
	return sortedIDs(seen)
}

// Counts holds the number of entries per series kind for one satellite.
type Counts struct {
	Orbit, Velocity, Clock, Covariance int
}

// Counts returns entry counts for id.
func (s *SeriesStore) Counts(id model.SatelliteID) Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{
		Orbit:      len(s.orbits[id]),
		Clock:      len(s.clocks[id]),
		Covariance: len(s.covs[id]),
	}
	for _, e := range s.orbits[id] {
		if e.HasVelocity() {
			c.Velocity++
		}
	}
	return c
}

// Subscribe registers a callback for store events. It returns an
// unsubscribe function.
func (s *SeriesStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *SeriesStore) subscribersLocked() []func(Event) {
	if len(s.subs) == 0 {
		return nil
	}
	fns := make([]func(Event), len(s.subs))
	for i, sub := range s.subs {
		fns[i] = sub.fn
	}
	return fns
}

// notify runs outside the lock so subscribers may read the store.
func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}

func sortedIDs(set map[model.SatelliteID]struct{}) []model.SatelliteID {
	ids := make([]model.SatelliteID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
