package provide

import (
	"sync"
	"time"
)

// FixedDatetimeProvider always answers a single fixed instant,
// regardless of offset, so golden output never drifts with the clock.
type FixedDatetimeProvider struct {
	at time.Time
}

// NewFixedDatetimeProvider pins "today" to at (in UTC).
func NewFixedDatetimeProvider(at time.Time) *FixedDatetimeProvider {
	return &FixedDatetimeProvider{at: at.UTC()}
}

func (p *FixedDatetimeProvider) ProvideToday(offsetHours *int) (time.Time, bool) {
	t := p.at
	if offsetHours != nil {
		t = t.Add(time.Duration(*offsetHours) * time.Hour)
	}
	return t, true
}

func (p *FixedDatetimeProvider) ResetToday() {}

// SystemDatetimeProvider captures the wall clock the first time it is
// asked within a compilation, then serves that same value to every
// subsequent request until reset, so a single compilation never
// observes the date changing mid-run.
type SystemDatetimeProvider struct {
	now func() time.Time

	mu       sync.Mutex
	captured bool
	at       time.Time
}

// NewSystemDatetimeProvider captures wall-clock time via now (normally
// time.Now, overridable in tests).
func NewSystemDatetimeProvider(now func() time.Time) *SystemDatetimeProvider {
	return &SystemDatetimeProvider{now: now}
}

func (p *SystemDatetimeProvider) ProvideToday(offsetHours *int) (time.Time, bool) {
	p.mu.Lock()
	if !p.captured {
		p.at = p.now().UTC()
		p.captured = true
	}
	t := p.at
	p.mu.Unlock()

	if offsetHours != nil {
		t = t.Add(time.Duration(*offsetHours) * time.Hour)
	}
	return t, true
}

func (p *SystemDatetimeProvider) ResetToday() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captured = false
}
