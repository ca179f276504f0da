package publisher

import (
	"context"

	"github.com/stretchr/testify/mock"

	"convbackend/clients"
	"convbackend/models"
)

// MockBranchPublisher is a mock implementation of services.BranchPublisher
type MockBranchPublisher struct {
	mock.Mock
}

func (m *MockBranchPublisher) Publish(
	ctx context.Context,
	git clients.GitDataClient,
	ref *models.RepositoryRef,
	publication models.BranchPublication,
	files models.OutputFileSet,
) (*models.PublishedBranch, error) {
	args := m.Called(ctx, git, ref, publication, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublishedBranch), args.Error(1)
}
