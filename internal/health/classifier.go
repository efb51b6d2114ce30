package health

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Status is the availability state shared by provider health tracking and
// the credential pool.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusRateLimited Status = "rate_limited"
	StatusDisabled    Status = "disabled"
)

// Verdict is the classifier's decision for one failed call: the target
// state, how long a rate limit lasts, and a human-readable reason.
type Verdict struct {
	Status   Status
	Cooldown time.Duration
	Reason   string
}

// Default cooldowns when the error body does not say how long to wait.
const (
	DefaultMinuteCooldown = time.Minute
	DefaultDailyCooldown  = 24 * time.Hour
)

// cooldownRe matches phrases like "Please try again in 30s", "retry after
// 2m", "try again in 1.5h". Number may be fractional; unit is h, m or s.
var cooldownRe = regexp.MustCompile(`(?i)(?:try again|retry)(?:\s+\w+)?\s+(?:in|after)\s+(\d+(?:\.\d+)?)\s*(h|m|s)\b`)

// ParseCooldown extracts an explicit wait duration from free-form error
// text. Sub-second values round up to one second so the caller never
// retries inside the same rate-limit window.
func ParseCooldown(text string) (time.Duration, bool) {
	m := cooldownRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	var unit time.Duration
	switch strings.ToLower(m[2]) {
	case "h":
		unit = time.Hour
	case "m":
		unit = time.Minute
	default:
		unit = time.Second
	}

	d := time.Duration(value * float64(unit))
	if d < time.Second {
		d = time.Second
	}
	return d, true
}

// classifierRule is one entry of the ordered classification table. The
// first matching rule wins, so authentication rules sit above rate-limit
// rules: an unauthenticated response may still echo rate-limit boilerplate.
type classifierRule struct {
	match    func(statusCode int, body string) bool
	cooldown func(body string) time.Duration
	status   Status
	reason   string
}

func containsAny(body string, phrases ...string) bool {
	lower := strings.ToLower(body)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// limitAcronymRe matches standalone RPM/TPM/TPD mentions without tripping
// on ordinary words that embed the same letters.
var limitAcronymRe = regexp.MustCompile(`(?i)\b(rpm|tpm|tpd)\b`)

func mentionsLimitAcronym(body string) bool {
	return limitAcronymRe.MatchString(body)
}

func rateLimitCooldown(body string) time.Duration {
	if d, ok := ParseCooldown(body); ok {
		return d
	}
	if containsAny(body, "per day", "daily") || strings.EqualFold(limitAcronymRe.FindString(body), "tpd") {
		return DefaultDailyCooldown
	}
	return DefaultMinuteCooldown
}

var rules = []classifierRule{
	{
		match: func(statusCode int, body string) bool {
			return statusCode == 401 || statusCode == 403 ||
				containsAny(body, "unauthorized", "user not found", "invalid api key", "invalid_api_key", "authentication")
		},
		status: StatusDisabled,
		reason: "authentication failure",
	},
	{
		match: func(statusCode int, body string) bool {
			return statusCode == 429 ||
				containsAny(body, "rate_limit_exceeded", "rate limit",
					"requests per minute", "tokens per minute", "tokens per day") ||
				mentionsLimitAcronym(body)
		},
		cooldown: rateLimitCooldown,
		status:   StatusRateLimited,
		reason:   "rate limited",
	},
}

// Classify maps a failed call's HTTP status code and error body to a
// health-state verdict. Errors matching no rule (transient network
// failures, 5xx) leave the provider available.
func Classify(statusCode int, body string) Verdict {
	for _, r := range rules {
		if r.match(statusCode, body) {
			v := Verdict{Status: r.status, Reason: r.reason}
			if r.cooldown != nil {
				v.Cooldown = r.cooldown(body)
			}
			return v
		}
	}
	return Verdict{Status: StatusAvailable, Reason: "transient"}
}
