package testutil

import (
	"context"

	"github.com/keywarden/keywarden/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) GetKeyByID(ctx context.Context, id string) (*domain.ApiKey, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApiKey), args.Error(1)
}

func (m *MockRepo) GetKeyByHash(ctx context.Context, keyHash string) (*domain.ApiKey, error) {
	args := m.Called(keyHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApiKey), args.Error(1)
}

func (m *MockRepo) CreateKey(ctx context.Context, key *domain.ApiKey) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockRepo) ListKeys(ctx context.Context, workspaceID string) ([]domain.ApiKey, error) {
	args := m.Called(workspaceID)
	return args.Get(0).([]domain.ApiKey), args.Error(1)
}

func (m *MockRepo) DeleteKey(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockRepo) UpdateKeyWithAudit(ctx context.Context, keyID string, patch domain.KeyPatch, entry *domain.AuditLog) error {
	args := m.Called(keyID, patch, entry)
	return args.Error(0)
}

func (m *MockRepo) GetAuditLogs(ctx context.Context, workspaceID string) ([]domain.AuditLog, error) {
	args := m.Called(workspaceID)
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

func (m *MockRepo) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}

type MockKeyService struct {
	mock.Mock
}

func (m *MockKeyService) UpdateKey(ctx context.Context, auth *domain.AuthContext, update *domain.KeyUpdate) error {
	args := m.Called(auth, update)
	return args.Error(0)
}

func (m *MockKeyService) GetKey(ctx context.Context, auth *domain.AuthContext, keyID string) (*domain.ApiKey, error) {
	args := m.Called(auth, keyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApiKey), args.Error(1)
}

func (m *MockKeyService) ListAuditLogs(ctx context.Context, workspaceID string) ([]domain.AuditLog, error) {
	args := m.Called(workspaceID)
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

func (m *MockKeyService) HealthCheck(ctx context.Context) map[string]error {
	args := m.Called()
	return args.Get(0).(map[string]error)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*domain.AuthContext, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthContext), args.Error(1)
}
