// Package health aggregates component checks into a single report.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the result of one component check.
type Check struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the overall health.
type Report struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Version   string           `json:"version,omitempty"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool { return r.Status == StatusHealthy }

type Checker interface {
	Check(ctx context.Context) Check
}

// Service runs registered checkers. After Shutdown every report is
// unhealthy, so load balancers drain the instance before it stops.
type Service struct {
	mu           sync.RWMutex
	checkers     map[string]Checker
	version      string
	shuttingDown bool
}

func NewService(version string) *Service {
	return &Service{checkers: make(map[string]Checker), version: version}
}

func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
}

// Shutdown marks the service as going away.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
}

func (s *Service) CheckHealth(ctx context.Context) Report {
	s.mu.RLock()
	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]Checker, len(s.checkers))
	for name, c := range s.checkers {
		checkers[name] = c
	}
	down := s.shuttingDown
	s.mu.RUnlock()
	sort.Strings(names)

	report := Report{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(names)),
		Version:   s.version,
	}
	for _, name := range names {
		check := checkers[name].Check(ctx)
		report.Checks[name] = check
		if check.Status != StatusHealthy {
			report.Status = StatusUnhealthy
		}
	}
	if down {
		report.Status = StatusUnhealthy
		report.Checks["shutdown"] = Check{Name: "shutdown", Status: StatusUnhealthy, Message: "shutting down"}
	}
	return report
}

// Pinger is satisfied by the repository manager.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker pings the document store.
type StoreChecker struct {
	store   Pinger
	timeout time.Duration
}

func NewStoreChecker(store Pinger, timeout time.Duration) *StoreChecker {
	return &StoreChecker{store: store, timeout: timeout}
}

func (c *StoreChecker) Check(ctx context.Context) Check {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := c.store.Ping(ctx)
	d := time.Since(start)
	if err != nil {
		return Check{Name: "store", Status: StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err), Duration: d}
	}
	return Check{Name: "store", Status: StatusHealthy, Message: "store reachable", Duration: d}
}

// LivenessChecker always passes.
type LivenessChecker struct{}

func (LivenessChecker) Check(context.Context) Check {
	return Check{Name: "liveness", Status: StatusHealthy, Message: "service is running"}
}
