// Package domain contains the core business entities for keywarden.
package domain

import (
	"time"
)

// RatelimitType selects the algorithm used by the usage limiter.
type RatelimitType string

const (
	// RatelimitFast favors local decisions over global accuracy.
	RatelimitFast RatelimitType = "fast"
	// RatelimitConsistent checks the shared counter on every request.
	RatelimitConsistent RatelimitType = "consistent"
)

// RateLimit is the per-key limiter configuration. It is persisted as four
// columns that are either all set or all null; a partially populated group
// is never written.
type RateLimit struct {
	Type           RatelimitType `json:"type"`
	Limit          int32         `json:"limit"`
	RefillRate     int32         `json:"refillRate"`
	RefillInterval int32         `json:"refillInterval"` // milliseconds
}

// ApiKey represents an API key scoped to a single workspace.
type ApiKey struct {
	ID                string     `json:"id"`
	KeyAuthID         string     `json:"key_auth_id"`
	WorkspaceID       string     `json:"workspace_id"`
	KeyHash           string     `json:"-"`          // SHA-256 hash of the key (never store raw)
	KeyPrefix         string     `json:"key_prefix"` // First 8 chars for identification
	Name              *string    `json:"name,omitempty"`
	OwnerID           *string    `json:"owner_id,omitempty"`
	Meta              *string    `json:"meta,omitempty"` // serialized JSON object
	Expires           *time.Time `json:"expires,omitempty"`
	RemainingRequests *int32     `json:"remaining,omitempty"` // null means unlimited
	Ratelimit         *RateLimit `json:"ratelimit,omitempty"`
	Root              bool       `json:"root"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Expired reports whether the key has an expiration in the past.
func (k *ApiKey) Expired(now time.Time) bool {
	return k.Expires != nil && k.Expires.Before(now)
}

// AuthContext is the per-request verdict produced by root key verification.
// It is never persisted.
type AuthContext struct {
	Valid       bool
	Root        bool
	WorkspaceID string
	KeyID       string // the root key's own ID, used as the audit actor
}

const (
	// ActorRootKey is the actor type recorded for changes made through the
	// management API.
	ActorRootKey = "root_key"

	// EventKeyUpdate is the audit event written for key mutations.
	EventKeyUpdate = "key.update"
)

// AuditLog records an administrative action. Entries are append-only and are
// written in the same transaction as the change they describe.
type AuditLog struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	ActorType   string    `json:"actor_type"`
	ActorID     string    `json:"actor_id"`
	Event       string    `json:"event"`
	Description string    `json:"description"`
	KeyAuthID   string    `json:"key_auth_id"`
	CreatedAt   time.Time `json:"created_at"`
}
