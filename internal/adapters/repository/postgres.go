package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/keywarden/keywarden/internal/core/domain"
	"github.com/keywarden/keywarden/internal/infrastructure/metrics"
)

// PostgresRepository implements ports.KeyRepository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates and returns a new PostgresRepository instance.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const keyColumns = `id, key_auth_id, workspace_id, key_hash, key_prefix, name, owner_id, meta, expires,
          remaining_requests, ratelimit_type, ratelimit_limit, ratelimit_refill_rate, ratelimit_refill_interval,
          root, created_at`

func scanKey(row interface{ Scan(...any) error }) (*domain.ApiKey, error) {
	var k domain.ApiKey
	var name, ownerID, meta, rlType sql.NullString
	var expires sql.NullTime
	var remaining, rlLimit, rlRefillRate, rlRefillInterval sql.NullInt32

	errScan := row.Scan(&k.ID, &k.KeyAuthID, &k.WorkspaceID, &k.KeyHash, &k.KeyPrefix,
		&name, &ownerID, &meta, &expires,
		&remaining, &rlType, &rlLimit, &rlRefillRate, &rlRefillInterval,
		&k.Root, &k.CreatedAt)
	if errScan != nil {
		return nil, errScan
	}

	if name.Valid {
		k.Name = &name.String
	}
	if ownerID.Valid {
		k.OwnerID = &ownerID.String
	}
	if meta.Valid {
		k.Meta = &meta.String
	}
	if expires.Valid {
		t := expires.Time
		k.Expires = &t
	}
	if remaining.Valid {
		v := remaining.Int32
		k.RemainingRequests = &v
	}
	// The schema guarantees the group is all-or-nothing, so checking one
	// column is enough.
	if rlType.Valid {
		k.Ratelimit = &domain.RateLimit{
			Type:           domain.RatelimitType(rlType.String),
			Limit:          rlLimit.Int32,
			RefillRate:     rlRefillRate.Int32,
			RefillInterval: rlRefillInterval.Int32,
		}
	}

	return &k, nil
}

func (r *PostgresRepository) GetKeyByID(ctx context.Context, id string) (*domain.ApiKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys WHERE id = $1`
	key, errRow := scanKey(r.db.QueryRowContext(ctx, query, id))
	if errRow != nil {
		if errors.Is(errRow, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errRow
	}
	return key, nil
}

func (r *PostgresRepository) GetKeyByHash(ctx context.Context, keyHash string) (*domain.ApiKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys WHERE key_hash = $1`
	key, errRow := scanKey(r.db.QueryRowContext(ctx, query, keyHash))
	if errRow != nil {
		if errors.Is(errRow, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errRow
	}
	return key, nil
}

func (r *PostgresRepository) CreateKey(ctx context.Context, key *domain.ApiKey) error {
	query := `INSERT INTO api_keys (id, key_auth_id, workspace_id, key_hash, key_prefix, name, owner_id, meta, expires,
	          remaining_requests, ratelimit_type, ratelimit_limit, ratelimit_refill_rate, ratelimit_refill_interval, root, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	var rlType *string
	var rlLimit, rlRefillRate, rlRefillInterval *int32
	if key.Ratelimit != nil {
		t := string(key.Ratelimit.Type)
		rlType = &t
		rlLimit = &key.Ratelimit.Limit
		rlRefillRate = &key.Ratelimit.RefillRate
		rlRefillInterval = &key.Ratelimit.RefillInterval
	}

	_, err := r.db.ExecContext(ctx, query, key.ID, key.KeyAuthID, key.WorkspaceID, key.KeyHash, key.KeyPrefix,
		key.Name, key.OwnerID, key.Meta, key.Expires,
		key.RemainingRequests, rlType, rlLimit, rlRefillRate, rlRefillInterval,
		key.Root, key.CreatedAt)
	return err
}

func (r *PostgresRepository) ListKeys(ctx context.Context, workspaceID string) ([]domain.ApiKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys WHERE workspace_id = $1 ORDER BY created_at`
	rows, errQuery := r.db.QueryContext(ctx, query, workspaceID)
	if errQuery != nil {
		return nil, errQuery
	}
	defer func() { if errClose := rows.Close(); errClose != nil { log.Printf("failed to close rows: %v", errClose) } }()

	var keys []domain.ApiKey
	for rows.Next() {
		key, errScan := scanKey(rows)
		if errScan != nil {
			return nil, errScan
		}
		keys = append(keys, *key)
	}
	return keys, rows.Err()
}

func (r *PostgresRepository) DeleteKey(ctx context.Context, id string) error {
	query := `DELETE FROM api_keys WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// UpdateKeyWithAudit writes the resolved patch and the audit entry under one
// transaction. The rate-limit group always moves as a unit: setting it fills
// all four columns, clearing it nulls all four.
func (r *PostgresRepository) UpdateKeyWithAudit(ctx context.Context, keyID string, patch domain.KeyPatch, entry *domain.AuditLog) error {
	tx, errTx := r.db.BeginTx(ctx, nil)
	if errTx != nil {
		return errTx
	}
	defer func() {
		if errRollback := tx.Rollback(); errRollback != nil && !errors.Is(errRollback, sql.ErrTxDone) {
			log.Printf("failed to rollback transaction: %v", errRollback)
		}
	}()

	if !patch.Empty() {
		var sets []string
		var args []any
		add := func(col string, v any) {
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}

		if patch.SetName {
			add("name", patch.Name)
		}
		if patch.SetOwnerID {
			add("owner_id", patch.OwnerID)
		}
		if patch.SetMeta {
			add("meta", patch.Meta)
		}
		if patch.SetExpires {
			add("expires", patch.Expires)
		}
		if patch.SetRemaining {
			add("remaining_requests", patch.Remaining)
		}
		if patch.SetRatelimit {
			if patch.Ratelimit != nil {
				add("ratelimit_type", string(patch.Ratelimit.Type))
				add("ratelimit_limit", patch.Ratelimit.Limit)
				add("ratelimit_refill_rate", patch.Ratelimit.RefillRate)
				add("ratelimit_refill_interval", patch.Ratelimit.RefillInterval)
			} else {
				add("ratelimit_type", nil)
				add("ratelimit_limit", nil)
				add("ratelimit_refill_rate", nil)
				add("ratelimit_refill_interval", nil)
			}
		}

		args = append(args, keyID)
		query := fmt.Sprintf(`UPDATE api_keys SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

		res, errExec := tx.ExecContext(ctx, query, args...)
		if errExec != nil {
			return errExec
		}
		if n, errRows := res.RowsAffected(); errRows == nil && n == 0 {
			return fmt.Errorf("key %s disappeared during update", keyID)
		}
	}

	auditQuery := `INSERT INTO audit_logs (id, workspace_id, actor_type, actor_id, event, description, key_auth_id, created_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, errAudit := tx.ExecContext(ctx, auditQuery, entry.ID, entry.WorkspaceID, entry.ActorType, entry.ActorID,
		entry.Event, entry.Description, entry.KeyAuthID, entry.CreatedAt)
	if errAudit != nil {
		return errAudit
	}

	if errCommit := tx.Commit(); errCommit != nil {
		return errCommit
	}
	metrics.AuditEntriesTotal.Inc()
	return nil
}

func (r *PostgresRepository) GetAuditLogs(ctx context.Context, workspaceID string) ([]domain.AuditLog, error) {
	query := `SELECT id, workspace_id, actor_type, actor_id, event, description, key_auth_id, created_at
	          FROM audit_logs WHERE workspace_id = $1 ORDER BY created_at DESC`
	rows, errQuery := r.db.QueryContext(ctx, query, workspaceID)
	if errQuery != nil {
		return nil, errQuery
	}
	defer func() { if errClose := rows.Close(); errClose != nil { log.Printf("failed to close rows: %v", errClose) } }()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if errScan := rows.Scan(&l.ID, &l.WorkspaceID, &l.ActorType, &l.ActorID, &l.Event, &l.Description, &l.KeyAuthID, &l.CreatedAt); errScan != nil {
			return nil, errScan
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
