package testutil

import (
	"context"
	"errors"
)

// MockInvalidator implements ports.UsageInvalidator for testing.
type MockInvalidator struct {
	Revalidated    []string
	FailRevalidate bool
	FailPing       bool
}

func (m *MockInvalidator) Revalidate(_ context.Context, keyID string) error {
	if m.FailRevalidate {
		return errors.New("revalidate failed")
	}
	m.Revalidated = append(m.Revalidated, keyID)
	return nil
}

func (m *MockInvalidator) Ping(_ context.Context) error {
	if m.FailPing {
		return errors.New("ping failed")
	}
	return nil
}
