package identity

import (
	"context"

	"github.com/stretchr/testify/mock"

	"convbackend/models"
)

// MockIdentityProvider is a mock implementation of the clients.IdentityProvider interface
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Mint(
	ctx context.Context,
	subjectID string,
	claims models.SessionClaims,
) (models.SessionCredential, error) {
	args := m.Called(ctx, subjectID, claims)
	return args.Get(0).(models.SessionCredential), args.Error(1)
}

func (m *MockIdentityProvider) Verify(ctx context.Context, credential models.SessionCredential) (*models.SessionClaims, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionClaims), args.Error(1)
}

// WithSession configures Verify to accept credential and return claims
func (m *MockIdentityProvider) WithSession(credential models.SessionCredential, claims *models.SessionClaims) *MockIdentityProvider {
	m.On("Verify", mock.Anything, credential).Return(claims, nil)
	return m
}
