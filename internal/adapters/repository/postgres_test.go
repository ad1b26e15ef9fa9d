package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/keywarden/keywarden/internal/core/domain"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("keywarden_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("failed to open db: %s", err)
	}

	schemaPath := filepath.Join(".", "schema.sql")
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("failed to read schema: %s", err)
	}

	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %s", err)
	}

	return db, func() {
		db.Close()
		pgContainer.Terminate(ctx)
	}
}

func seedKey(t *testing.T, repo *PostgresRepository, workspaceID string, remaining *int32) *domain.ApiKey {
	t.Helper()
	key := &domain.ApiKey{
		ID:                "key_" + uuid.New().String()[:8],
		KeyAuthID:         "ka_" + uuid.New().String()[:8],
		WorkspaceID:       workspaceID,
		KeyHash:           uuid.New().String(),
		KeyPrefix:         "kw_seed_",
		RemainingRequests: remaining,
		CreatedAt:         time.Now(),
	}
	if err := repo.CreateKey(context.Background(), key); err != nil {
		t.Fatalf("failed to seed key: %v", err)
	}
	return key
}

func TestPostgresRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPostgresRepository(db)
	ctx := context.Background()

	t.Run("RemainingNullBecomesUnlimited", func(t *testing.T) {
		remaining := int32(1000)
		key := seedKey(t, repo, "ws_1", &remaining)

		patch := domain.KeyPatch{SetRemaining: true}
		entry := &domain.AuditLog{
			ID: uuid.New().String(), WorkspaceID: "ws_1", ActorType: domain.ActorRootKey,
			ActorID: "key_root", Event: domain.EventKeyUpdate, Description: "updated key " + key.ID,
			KeyAuthID: key.KeyAuthID, CreatedAt: time.Now(),
		}
		if err := repo.UpdateKeyWithAudit(ctx, key.ID, patch, entry); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, err := repo.GetKeyByID(ctx, key.ID)
		if err != nil || got == nil {
			t.Fatalf("reload failed: %v", err)
		}
		if got.RemainingRequests != nil {
			t.Errorf("expected unlimited remaining, got %v", *got.RemainingRequests)
		}

		logs, err := repo.GetAuditLogs(ctx, "ws_1")
		if err != nil || len(logs) == 0 {
			t.Fatalf("expected audit entry, got %v / %d", err, len(logs))
		}
		if logs[0].Event != domain.EventKeyUpdate {
			t.Errorf("unexpected audit event: %s", logs[0].Event)
		}
	})

	t.Run("RatelimitGroupSetAtomically", func(t *testing.T) {
		key := seedKey(t, repo, "ws_2", nil)

		patch := domain.KeyPatch{SetRatelimit: true, Ratelimit: &domain.RateLimit{
			Type: domain.RatelimitFast, Limit: 10, RefillRate: 1, RefillInterval: 60,
		}}
		entry := &domain.AuditLog{
			ID: uuid.New().String(), WorkspaceID: "ws_2", ActorType: domain.ActorRootKey,
			ActorID: "key_root", Event: domain.EventKeyUpdate, Description: "updated key " + key.ID,
			KeyAuthID: key.KeyAuthID, CreatedAt: time.Now(),
		}
		if err := repo.UpdateKeyWithAudit(ctx, key.ID, patch, entry); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, _ := repo.GetKeyByID(ctx, key.ID)
		if got.Ratelimit == nil {
			t.Fatal("expected ratelimit group populated")
		}
		if got.Ratelimit.Type != domain.RatelimitFast || got.Ratelimit.Limit != 10 ||
			got.Ratelimit.RefillRate != 1 || got.Ratelimit.RefillInterval != 60 {
			t.Errorf("unexpected group: %+v", got.Ratelimit)
		}

		// Clearing nulls all four columns together; the schema's check
		// constraint rejects any partial state.
		patch = domain.KeyPatch{SetRatelimit: true}
		entry.ID = uuid.New().String()
		if err := repo.UpdateKeyWithAudit(ctx, key.ID, patch, entry); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		got, _ = repo.GetKeyByID(ctx, key.ID)
		if got.Ratelimit != nil {
			t.Errorf("expected ratelimit cleared, got %+v", got.Ratelimit)
		}
	})

	t.Run("MetaRoundTrip", func(t *testing.T) {
		key := seedKey(t, repo, "ws_3", nil)

		meta := `{"tier":"gold"}`
		patch := domain.KeyPatch{SetMeta: true, Meta: &meta}
		entry := &domain.AuditLog{
			ID: uuid.New().String(), WorkspaceID: "ws_3", ActorType: domain.ActorRootKey,
			ActorID: "key_root", Event: domain.EventKeyUpdate, Description: "updated key " + key.ID,
			KeyAuthID: key.KeyAuthID, CreatedAt: time.Now(),
		}
		if err := repo.UpdateKeyWithAudit(ctx, key.ID, patch, entry); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, _ := repo.GetKeyByID(ctx, key.ID)
		if got.Meta == nil || *got.Meta != meta {
			t.Errorf("expected meta %s, got %v", meta, got.Meta)
		}
	})
}
