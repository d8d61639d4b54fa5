package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockShellRunner is a mock implementation of shell.Runner interface.
type MockShellRunner struct {
	mock.Mock
}

func (m *MockShellRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	callArgs := m.Called(ctx, name, args)

	return callArgs.String(0), callArgs.Error(1)
}

func (m *MockShellRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	callArgs := m.Called(ctx, name, args)

	return callArgs.Int(0), callArgs.Error(1)
}
