package ports

import (
	"context"

	"github.com/keywarden/keywarden/internal/core/domain"
)

// KeyRepository is the persistence boundary for keys and their audit trail.
type KeyRepository interface {
	GetKeyByID(ctx context.Context, id string) (*domain.ApiKey, error)
	GetKeyByHash(ctx context.Context, keyHash string) (*domain.ApiKey, error)
	CreateKey(ctx context.Context, key *domain.ApiKey) error
	ListKeys(ctx context.Context, workspaceID string) ([]domain.ApiKey, error)
	DeleteKey(ctx context.Context, id string) error

	// UpdateKeyWithAudit applies the patch and appends the audit entry in a
	// single transaction. Either both are committed or neither is visible.
	UpdateKeyWithAudit(ctx context.Context, keyID string, patch domain.KeyPatch, entry *domain.AuditLog) error

	GetAuditLogs(ctx context.Context, workspaceID string) ([]domain.AuditLog, error)
	Ping(ctx context.Context) error
}

// KeyService drives the update-authorize-audit-invalidate workflow.
type KeyService interface {
	UpdateKey(ctx context.Context, auth *domain.AuthContext, update *domain.KeyUpdate) error
	GetKey(ctx context.Context, auth *domain.AuthContext, keyID string) (*domain.ApiKey, error)
	ListAuditLogs(ctx context.Context, workspaceID string) ([]domain.AuditLog, error)
	HealthCheck(ctx context.Context) map[string]error
}

// RootKeyVerifier turns a bearer token into an authorization verdict. An
// invalid or unknown token yields a context with Valid=false, not an error;
// errors are reserved for verifier failures.
type RootKeyVerifier interface {
	Verify(ctx context.Context, token string) (*domain.AuthContext, error)
}

// UsageInvalidator tells the usage-limiter subsystem to drop cached state
// for a key. Called strictly after commit; failures degrade freshness only.
type UsageInvalidator interface {
	Revalidate(ctx context.Context, keyID string) error
	Ping(ctx context.Context) error
}
