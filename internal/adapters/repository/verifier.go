package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/keywarden/keywarden/internal/core/domain"
	"github.com/keywarden/keywarden/internal/core/ports"
)

// KeyVerifier implements ports.RootKeyVerifier against the key store. The
// raw token is hashed before lookup; plaintext keys are never persisted.
type KeyVerifier struct {
	repo ports.KeyRepository
}

func NewKeyVerifier(repo ports.KeyRepository) *KeyVerifier {
	return &KeyVerifier{repo: repo}
}

// Verify resolves a bearer token to an authorization verdict. Unknown and
// expired tokens produce an invalid verdict, not an error; an error means
// the store itself failed.
func (v *KeyVerifier) Verify(ctx context.Context, token string) (*domain.AuthContext, error) {
	hash := sha256.Sum256([]byte(token))
	keyHash := hex.EncodeToString(hash[:])

	key, err := v.repo.GetKeyByHash(ctx, keyHash)
	if err != nil {
		return nil, err
	}
	if key == nil || key.Expired(time.Now()) {
		return &domain.AuthContext{}, nil
	}

	return &domain.AuthContext{
		Valid:       true,
		Root:        key.Root,
		WorkspaceID: key.WorkspaceID,
		KeyID:       key.ID,
	}, nil
}
