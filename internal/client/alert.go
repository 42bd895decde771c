package client

import (
	"sync"
	"time"
)

// AlertDuration is how long an alert stays visible
const AlertDuration = 5 * time.Second

// Severity of an alert
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Alert is a message shown to the user
type Alert struct {
	Message  string
	Severity Severity
}

// AlertSurface holds at most one alert. Each Show replaces the current alert
// and restarts the single clear timer.
type AlertSurface struct {
	mu       sync.Mutex
	current  *Alert
	timer    *time.Timer
	gen      uint64
	ttl      time.Duration
	onChange func(*Alert)
}

// NewAlertSurface creates an alert surface. onChange, when set, is called
// with the new alert, or nil when it is cleared.
func NewAlertSurface(ttl time.Duration, onChange func(*Alert)) *AlertSurface {
	return &AlertSurface{ttl: ttl, onChange: onChange}
}

// Show displays msg and schedules it to be cleared after the ttl
func (s *AlertSurface) Show(msg string, severity Severity) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	alert := &Alert{Message: msg, Severity: severity}
	s.current = alert
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.ttl, func() { s.expire(gen) })
	s.mu.Unlock()

	s.notify(alert)
}

// Current returns the visible alert
func (s *AlertSurface) Current() (Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Alert{}, false
	}
	return *s.current, true
}

// Clear hides the current alert immediately
func (s *AlertSurface) Clear() {
	s.mu.Lock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	had := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if had {
		s.notify(nil)
	}
}

// expire clears the alert unless a newer one replaced it
func (s *AlertSurface) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.timer = nil
	s.mu.Unlock()

	s.notify(nil)
}

func (s *AlertSurface) notify(a *Alert) {
	if s.onChange != nil {
		s.onChange(a)
	}
}
