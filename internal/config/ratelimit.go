package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RateLimit allows Requests per Window for a single client.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

func (l RateLimit) String() string {
	return fmt.Sprintf("%d per %s", l.Requests, l.Window)
}

var rateLimitUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParseRateLimits parses ";"-separated limits such as "200 per day;50 per hour".
// An empty string yields no limits.
func ParseRateLimits(raw string) ([]RateLimit, error) {
	var limits []RateLimit
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		limit, err := parseRateLimit(part)
		if err != nil {
			return nil, err
		}
		limits = append(limits, limit)
	}
	return limits, nil
}

func parseRateLimit(raw string) (RateLimit, error) {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 1 && strings.Contains(fields[0], "/") {
		// "10/minute" shorthand
		pieces := strings.SplitN(fields[0], "/", 2)
		fields = []string{pieces[0], "per", pieces[1]}
	}
	if len(fields) != 3 || fields[1] != "per" {
		return RateLimit{}, fmt.Errorf("rate limit %q must look like \"N per unit\"", raw)
	}

	requests, err := strconv.Atoi(fields[0])
	if err != nil || requests <= 0 {
		return RateLimit{}, fmt.Errorf("rate limit %q: request count must be a positive integer", raw)
	}

	unit := strings.TrimSuffix(fields[2], "s")
	window, ok := rateLimitUnits[unit]
	if !ok {
		return RateLimit{}, fmt.Errorf("rate limit %q: unknown unit %q", raw, fields[2])
	}

	return RateLimit{Requests: requests, Window: window}, nil
}
