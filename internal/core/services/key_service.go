package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/keywarden/keywarden/internal/core/domain"
	"github.com/keywarden/keywarden/internal/core/ports"
	"github.com/keywarden/keywarden/internal/infrastructure/metrics"
)

type keyService struct {
	repo        ports.KeyRepository
	invalidator ports.UsageInvalidator
}

func NewKeyService(repo ports.KeyRepository, invalidator ports.UsageInvalidator) ports.KeyService {
	return &keyService{repo: repo, invalidator: invalidator}
}

// UpdateKey runs the core workflow: look up the target inside the caller's
// workspace, resolve the tri-state patch, apply it together with one audit
// entry in a single transaction, then nudge the usage limiter.
//
// A key in another workspace is reported as not found so that key existence
// never leaks across tenants.
func (s *keyService) UpdateKey(ctx context.Context, auth *domain.AuthContext, update *domain.KeyUpdate) error {
	key, err := s.repo.GetKeyByID(ctx, update.KeyID)
	if err != nil {
		metrics.KeyUpdatesTotal.WithLabelValues("error").Inc()
		log.Printf("UpdateKey: lookup of %s failed: %v", update.KeyID, err)
		return domain.Internal("unable to load key")
	}
	if key == nil || key.WorkspaceID != auth.WorkspaceID {
		metrics.KeyUpdatesTotal.WithLabelValues("not_found").Inc()
		return domain.NotFound(fmt.Sprintf("key %s not found", update.KeyID))
	}

	patch, err := update.Resolve()
	if err != nil {
		// Only reachable with an unvalidated payload.
		metrics.KeyUpdatesTotal.WithLabelValues("error").Inc()
		log.Printf("UpdateKey: resolving patch for %s failed: %v", key.ID, err)
		return domain.Internal("unable to resolve update")
	}

	entry := &domain.AuditLog{
		ID:          uuid.New().String(),
		WorkspaceID: auth.WorkspaceID,
		ActorType:   domain.ActorRootKey,
		ActorID:     auth.KeyID,
		Event:       domain.EventKeyUpdate,
		Description: fmt.Sprintf("updated key %s", key.ID),
		KeyAuthID:   key.KeyAuthID,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.UpdateKeyWithAudit(ctx, key.ID, patch, entry); err != nil {
		metrics.KeyUpdatesTotal.WithLabelValues("error").Inc()
		log.Printf("UpdateKey: transaction for %s failed: %v", key.ID, err)
		return domain.Internal("unable to update key")
	}
	metrics.KeyUpdatesTotal.WithLabelValues("ok").Inc()

	// Post-commit, best effort. Other regions converge within the limiter's
	// refresh window; a failure here only means stale cached state.
	if err := s.invalidator.Revalidate(ctx, key.ID); err != nil {
		metrics.InvalidationsTotal.WithLabelValues("error").Inc()
		log.Printf("UpdateKey: cache invalidation for %s failed: %v", key.ID, err)
	} else {
		metrics.InvalidationsTotal.WithLabelValues("ok").Inc()
	}

	return nil
}

func (s *keyService) GetKey(ctx context.Context, auth *domain.AuthContext, keyID string) (*domain.ApiKey, error) {
	key, err := s.repo.GetKeyByID(ctx, keyID)
	if err != nil {
		log.Printf("GetKey: lookup of %s failed: %v", keyID, err)
		return nil, domain.Internal("unable to load key")
	}
	if key == nil || key.WorkspaceID != auth.WorkspaceID {
		return nil, domain.NotFound(fmt.Sprintf("key %s not found", keyID))
	}
	return key, nil
}

func (s *keyService) ListAuditLogs(ctx context.Context, workspaceID string) ([]domain.AuditLog, error) {
	logs, err := s.repo.GetAuditLogs(ctx, workspaceID)
	if err != nil {
		log.Printf("ListAuditLogs: query for %s failed: %v", workspaceID, err)
		return nil, domain.Internal("unable to list audit logs")
	}
	return logs, nil
}

func (s *keyService) HealthCheck(ctx context.Context) map[string]error {
	return map[string]error{
		"database": s.repo.Ping(ctx),
		"cache":    s.invalidator.Ping(ctx),
	}
}
