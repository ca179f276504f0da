package services

import (
	"context"
	"net/http"

	"convbackend/clients"
	"convbackend/models"
)

// SessionStore keeps the OAuth state token and the session credential in browser cookies
type SessionStore interface {
	SetStateToken(w http.ResponseWriter, token string)
	GetStateToken(r *http.Request) string
	ClearStateToken(w http.ResponseWriter)

	SetSession(w http.ResponseWriter, credential models.SessionCredential)
	GetSession(r *http.Request) (models.SessionCredential, bool)
	ClearSession(w http.ResponseWriter)
}

// RepositorySource reads repositories and files on behalf of a signed-in user
type RepositorySource interface {
	ListRepositories(ctx context.Context, accessToken string) ([]models.RepositorySummary, error)
	Resolve(ctx context.Context, accessToken, repoID string) (*models.RepositoryRef, error)
	ReadFile(ctx context.Context, accessToken string, ref *models.RepositoryRef, path string) (string, error)
}

// BranchPublisher writes an output file set as a single commit on a new branch
type BranchPublisher interface {
	Publish(
		ctx context.Context,
		git clients.GitDataClient,
		ref *models.RepositoryRef,
		publication models.BranchPublication,
		files models.OutputFileSet,
	) (*models.PublishedBranch, error)
}
