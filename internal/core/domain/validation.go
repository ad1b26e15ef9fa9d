package domain

import (
	"fmt"
)

// ValidateKeyUpdate enforces the inbound schema for a key update. It runs
// before the patch resolver, so the resolver never sees a partial rate-limit
// group or a negative counter.
func ValidateKeyUpdate(u *KeyUpdate) error {
	if u.KeyID == "" {
		return fmt.Errorf("keyId is required")
	}

	if u.Remaining.Valid && u.Remaining.Value < 0 {
		return fmt.Errorf("remaining must not be negative")
	}

	if u.Ratelimit.Valid {
		if err := ValidateRateLimit(&u.Ratelimit.Value); err != nil {
			return err
		}
	}

	return nil
}

// ValidateRateLimit checks a complete rate-limit group. All four fields must
// be supplied together; zero values mean the client sent a partial object.
func ValidateRateLimit(rl *RateLimit) error {
	switch rl.Type {
	case RatelimitFast, RatelimitConsistent:
	case "":
		return fmt.Errorf("ratelimit.type is required")
	default:
		return fmt.Errorf("ratelimit.type must be 'fast' or 'consistent', got '%s'", rl.Type)
	}

	if rl.Limit < 1 {
		return fmt.Errorf("ratelimit.limit must be at least 1")
	}
	if rl.RefillRate < 1 {
		return fmt.Errorf("ratelimit.refillRate must be at least 1")
	}
	if rl.RefillInterval < 1 {
		return fmt.Errorf("ratelimit.refillInterval must be at least 1")
	}

	return nil
}
