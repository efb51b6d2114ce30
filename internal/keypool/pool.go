// Package keypool rotates among interchangeable API keys for one logical
// provider, spreading load under per-key rate limits. It is an independent
// sibling of the provider health tracker: the tracker handles distinct
// backends, the pool handles multiple keys for the same backend.
package keypool

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/polytran/polytran/internal/health"
)

// defaultCooldown applies when a rate-limit error does not state an
// explicit retry-after duration.
const defaultCooldown = 15 * time.Minute

// Credential is one API key in the pool.
type Credential struct {
	Key  string
	Name string

	status     health.Status
	resetTime  time.Time
	callsToday int
	callsDay   time.Time
	lastUsed   time.Time
	avgLatency time.Duration
}

// CredentialStatus is an observability snapshot of one credential. Key
// material is never included.
type CredentialStatus struct {
	Name       string        `json:"name"`
	Status     health.Status `json:"status"`
	ResetTime  *time.Time    `json:"reset_time,omitempty"`
	CallsToday int           `json:"calls_today"`
	LastUsed   *time.Time    `json:"last_used,omitempty"`
	AvgLatency time.Duration `json:"avg_latency"`
}

// Pool round-robins over the currently available credentials.
type Pool struct {
	mu     sync.Mutex
	creds  []*Credential
	cursor int
	now    func() time.Time
}

// New creates a pool from raw keys. Every key starts available. names may
// be nil; missing names fall back to a positional label.
func New(keys []string, names []string) *Pool {
	p := &Pool{now: time.Now}
	for i, key := range keys {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		if name == "" {
			name = fmt.Sprintf("key-%d", i+1)
		}
		p.creds = append(p.creds, &Credential{
			Key:    key,
			Name:   name,
			status: health.StatusAvailable,
		})
	}
	return p
}

// SetClock overrides the time source for tests.
func (p *Pool) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Len returns the number of credentials in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

// NextAvailable returns the next credential in rotation, or false when none
// is usable. Credentials whose resetTime has passed are re-evaluated back
// to available before the rotation scan.
func (p *Pool) NextAvailable() (*Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for _, c := range p.creds {
		if c.status == health.StatusRateLimited && !c.resetTime.IsZero() && !now.Before(c.resetTime) {
			c.status = health.StatusAvailable
			c.resetTime = time.Time{}
			slog.Info("credential recovered from rate limit", "credential", c.Name)
		}
	}

	n := len(p.creds)
	for i := 0; i < n; i++ {
		c := p.creds[(p.cursor+i)%n]
		if c.status == health.StatusAvailable {
			p.cursor = (p.cursor + i + 1) % n
			c.lastUsed = now
			return c, true
		}
	}
	return nil, false
}

// MarkRateLimited puts a credential on cooldown. The error text is scanned
// for an explicit "retry after <N><h|m|s>" duration; without one the
// default cooldown applies.
func (p *Pool) MarkRateLimited(c *Credential, errText string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cooldown := defaultCooldown
	if d, ok := health.ParseCooldown(errText); ok {
		cooldown = d
	}
	c.status = health.StatusRateLimited
	c.resetTime = p.now().Add(cooldown)
	slog.Warn("credential rate limited", "credential", c.Name, "cooldown", cooldown)
}

// MarkDisabled permanently removes a credential from rotation. Used only
// for authentication failures; recovery requires operator intervention.
func (p *Pool) MarkDisabled(c *Credential, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c.status = health.StatusDisabled
	c.resetTime = time.Time{}
	slog.Warn("credential disabled", "credential", c.Name, "reason", reason)
}

// RecordSuccess folds one successful call into the credential's running
// average latency and daily call count. Status never changes on success.
func (p *Pool) RecordSuccess(c *Credential, latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	day := p.now().Truncate(24 * time.Hour)
	if !day.Equal(c.callsDay) {
		c.callsDay = day
		c.callsToday = 0
	}
	c.callsToday++

	if c.avgLatency == 0 {
		c.avgLatency = latency
	} else {
		c.avgLatency = (c.avgLatency*time.Duration(c.callsToday-1) + latency) / time.Duration(c.callsToday)
	}
}

// Status returns a snapshot of every credential in the pool.
func (p *Pool) Status() []CredentialStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]CredentialStatus, 0, len(p.creds))
	for _, c := range p.creds {
		cs := CredentialStatus{
			Name:       c.Name,
			Status:     c.status,
			CallsToday: c.callsToday,
			AvgLatency: c.avgLatency,
		}
		if !c.resetTime.IsZero() {
			rt := c.resetTime
			cs.ResetTime = &rt
		}
		if !c.lastUsed.IsZero() {
			lu := c.lastUsed
			cs.LastUsed = &lu
		}
		out = append(out, cs)
	}
	return out
}
