package health

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	StateStarting = "starting"
	StateHealthy  = "healthy"
	StateDegraded = "degraded"
	StateStopped  = "stopped"
)

// Reporter is implemented by Registry and handed to background services.
type Reporter interface {
	Starting(component, message string)
	Beat(component, message string)
	Degrade(component, message string, err error)
	Stopped(component, message string)
}

type ComponentStatus struct {
	Name      string
	State     string
	Message   string
	Error     string
	UpdatedAt time.Time
}

type Snapshot struct {
	Overall    string
	Components []ComponentStatus
}

// Degraded reports whether any background service is failing.
func (s Snapshot) Degraded() bool {
	return s.Overall == StateDegraded
}

// Registry tracks the console's background services for the status line.
type Registry struct {
	mu         sync.RWMutex
	components map[string]ComponentStatus
	now        func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		components: map[string]ComponentStatus{},
		now:        time.Now,
	}
}

func (r *Registry) Starting(component, message string) {
	r.set(component, StateStarting, message, nil)
}

func (r *Registry) Beat(component, message string) {
	r.set(component, StateHealthy, message, nil)
}

func (r *Registry) Degrade(component, message string, err error) {
	r.set(component, StateDegraded, message, err)
}

func (r *Registry) Stopped(component, message string) {
	r.set(component, StateStopped, message, nil)
}

func (r *Registry) set(component, state, message string, err error) {
	name := strings.ToLower(strings.TrimSpace(component))
	if name == "" {
		return
	}
	status := ComponentStatus{
		Name:      name,
		State:     state,
		Message:   strings.TrimSpace(message),
		UpdatedAt: r.now().UTC(),
	}
	if err != nil {
		status.Error = strings.TrimSpace(err.Error())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = status
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]ComponentStatus, 0, len(r.components))
	for _, status := range r.components {
		results = append(results, status)
	}
	sort.Slice(results, func(left, right int) bool {
		return results[left].Name < results[right].Name
	})
	return Snapshot{
		Overall:    computeOverall(results),
		Components: results,
	}
}

func computeOverall(items []ComponentStatus) string {
	if len(items) == 0 {
		return "idle"
	}
	hasStarting := false
	hasHealthy := false
	for _, item := range items {
		switch item.State {
		case StateDegraded:
			return StateDegraded
		case StateStarting:
			hasStarting = true
		case StateHealthy:
			hasHealthy = true
		}
	}
	if hasStarting {
		return StateStarting
	}
	if hasHealthy {
		return StateHealthy
	}
	return "idle"
}

// Nop discards reports; services use it when no registry is wired.
type Nop struct{}

func (Nop) Starting(string, string)       {}
func (Nop) Beat(string, string)           {}
func (Nop) Degrade(string, string, error) {}
func (Nop) Stopped(string, string)        {}
