package repositories

import (
	"context"

	"github.com/stretchr/testify/mock"

	"convbackend/models"
)

// MockRepositorySource is a mock implementation of services.RepositorySource
type MockRepositorySource struct {
	mock.Mock
}

func (m *MockRepositorySource) ListRepositories(ctx context.Context, accessToken string) ([]models.RepositorySummary, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RepositorySummary), args.Error(1)
}

func (m *MockRepositorySource) Resolve(ctx context.Context, accessToken, repoID string) (*models.RepositoryRef, error) {
	args := m.Called(ctx, accessToken, repoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepositoryRef), args.Error(1)
}

func (m *MockRepositorySource) ReadFile(
	ctx context.Context,
	accessToken string,
	ref *models.RepositoryRef,
	path string,
) (string, error) {
	args := m.Called(ctx, accessToken, ref, path)
	return args.String(0), args.Error(1)
}
