package health

import (
	"log/slog"
	"sync"
	"time"
)

// ProviderStatus is an observability snapshot of one provider's state.
type ProviderStatus struct {
	Status            Status     `json:"status"`
	DisabledUntil     *time.Time `json:"disabled_until,omitempty"`
	DisabledReason    string     `json:"disabled_reason,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
	TokensUsedToday   int        `json:"tokens_used_today"`
	RequestsPerMinute int        `json:"requests_per_minute"`
}

// TransitionFunc observes health-state transitions, for audit persistence
// and metrics. Called outside the tracker lock.
type TransitionFunc func(providerID string, from, to Status, reason string)

// providerState is the mutable health record for one provider.
type providerState struct {
	status         Status
	disabledUntil  time.Time
	disabledReason string
	lastError      string

	tokensUsedToday int
	usageDay        time.Time

	minuteStart      time.Time
	requestsInMinute int
}

// Tracker is the per-provider health state machine. One instance is shared
// by every concurrent request; all read-modify-write sequences are
// serialized under a single mutex to avoid lost updates when two requests
// fail against the same provider at once.
//
// Recovery from rate_limited is lazy: the state flips back to available the
// first time availability is queried after disabledUntil has passed. There
// are no background timers, so behavior depends only on stored timestamps
// and survives restarts.
type Tracker struct {
	mu     sync.Mutex
	states map[string]*providerState
	now    func() time.Time

	onTransition TransitionFunc
}

// NewTracker creates a tracker with every listed provider available.
func NewTracker(providerIDs []string) *Tracker {
	t := &Tracker{
		states: make(map[string]*providerState, len(providerIDs)),
		now:    time.Now,
	}
	for _, id := range providerIDs {
		t.states[id] = &providerState{status: StatusAvailable}
	}
	return t
}

// SetClock overrides the time source. Tests use this to simulate cooldown
// expiry deterministically.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// OnTransition registers an observer for state transitions.
func (t *Tracker) OnTransition(fn TransitionFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTransition = fn
}

// Available reports whether the provider may be selected. A rate-limited
// provider whose cooldown has expired is transitioned back to available as
// a side effect of the query; repeated queries after that see the already
// available state and mutate nothing.
func (t *Tracker) Available(providerID string) bool {
	t.mu.Lock()
	s, ok := t.states[providerID]
	if !ok {
		t.mu.Unlock()
		return false
	}

	var notify func()
	if s.status == StatusRateLimited && !t.now().Before(s.disabledUntil) {
		s.status = StatusAvailable
		s.disabledUntil = time.Time{}
		s.disabledReason = ""
		s.requestsInMinute = 0
		notify = t.transitionNotifier(providerID, StatusRateLimited, StatusAvailable, "cooldown expired")
		slog.Info("provider recovered from rate limit", "provider", providerID)
	}
	available := s.status == StatusAvailable
	t.mu.Unlock()

	if notify != nil {
		notify()
	}
	return available
}

// Apply records a classifier verdict against the provider. Verdicts with
// StatusAvailable only update lastError (transient failures cause no
// transition). A disabled provider is never resurrected by a later, softer
// verdict.
func (t *Tracker) Apply(providerID string, v Verdict, errText string) {
	t.mu.Lock()
	s, ok := t.states[providerID]
	if !ok {
		t.mu.Unlock()
		return
	}

	s.lastError = errText
	var notify func()

	switch v.Status {
	case StatusDisabled:
		if s.status != StatusDisabled {
			notify = t.transitionNotifier(providerID, s.status, StatusDisabled, v.Reason)
			s.status = StatusDisabled
			s.disabledUntil = time.Time{}
			s.disabledReason = v.Reason
			slog.Warn("provider disabled", "provider", providerID, "reason", v.Reason)
		}
	case StatusRateLimited:
		if s.status == StatusDisabled {
			break
		}
		cooldown := v.Cooldown
		if cooldown <= 0 {
			cooldown = DefaultMinuteCooldown
		}
		until := t.now().Add(cooldown)
		if s.status != StatusRateLimited {
			notify = t.transitionNotifier(providerID, s.status, StatusRateLimited, v.Reason)
		}
		s.status = StatusRateLimited
		s.disabledUntil = until
		s.disabledReason = v.Reason
		slog.Warn("provider rate limited",
			"provider", providerID,
			"cooldown", cooldown,
			"until", until,
		)
	}
	t.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// RecordSuccess updates usage counters after a successful call. Status is
// never changed by success.
func (t *Tracker) RecordSuccess(providerID string, tokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[providerID]
	if !ok {
		return
	}

	now := t.now()
	day := now.Truncate(24 * time.Hour)
	if !day.Equal(s.usageDay) {
		s.usageDay = day
		s.tokensUsedToday = 0
	}
	s.tokensUsedToday += tokens

	if now.Sub(s.minuteStart) >= time.Minute {
		s.minuteStart = now
		s.requestsInMinute = 0
	}
	s.requestsInMinute++
}

// Reset forces a provider back to available. This is the manual operator
// path out of the disabled state.
func (t *Tracker) Reset(providerID string) {
	t.mu.Lock()
	s, ok := t.states[providerID]
	if !ok {
		t.mu.Unlock()
		return
	}
	from := s.status
	var notify func()
	if from != StatusAvailable {
		notify = t.transitionNotifier(providerID, from, StatusAvailable, "manual reset")
	}
	s.status = StatusAvailable
	s.disabledUntil = time.Time{}
	s.disabledReason = ""
	s.lastError = ""
	t.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Snapshot returns the current status of every tracked provider.
func (t *Tracker) Snapshot() map[string]ProviderStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := make(map[string]ProviderStatus, len(t.states))
	for id, s := range t.states {
		ps := ProviderStatus{
			Status:            s.status,
			DisabledReason:    s.disabledReason,
			LastError:         s.lastError,
			TokensUsedToday:   s.tokensUsedToday,
			RequestsPerMinute: s.requestsInMinute,
		}
		if !s.disabledUntil.IsZero() {
			until := s.disabledUntil
			ps.DisabledUntil = &until
		}
		snap[id] = ps
	}
	return snap
}

// transitionNotifier captures the observer callback under the lock and
// returns a closure to invoke after releasing it.
func (t *Tracker) transitionNotifier(providerID string, from, to Status, reason string) func() {
	fn := t.onTransition
	if fn == nil {
		return nil
	}
	return func() { fn(providerID, from, to, reason) }
}
