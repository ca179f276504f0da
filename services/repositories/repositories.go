package repositories

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"convbackend/clients"
	"convbackend/core"
	"convbackend/models"
)

type RepositorySourceService struct {
	githubClients clients.GitHubClientFactory
}

func NewRepositorySourceService(githubClients clients.GitHubClientFactory) *RepositorySourceService {
	return &RepositorySourceService{
		githubClients: githubClients,
	}
}

func (s *RepositorySourceService) ListRepositories(ctx context.Context, accessToken string) ([]models.RepositorySummary, error) {
	log.Ctx(ctx).Info().Msg("📋 Starting to list owned repositories")

	repos, err := s.githubClients.ForToken(accessToken).ListOwnedRepositories(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("❌ Failed to list repositories")
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	result := make([]models.RepositorySummary, 0, len(repos))
	for _, repo := range repos {
		result = append(result, models.RepositorySummary{ID: repo.ID, Name: repo.Name})
	}

	log.Ctx(ctx).Info().Int("count", len(result)).Msg("📋 Completed successfully - listed repositories")
	return result, nil
}

// Resolve looks up a repository by its numeric id
func (s *RepositorySourceService) Resolve(ctx context.Context, accessToken, repoID string) (*models.RepositoryRef, error) {
	log.Ctx(ctx).Info().Str("repo_id", repoID).Msg("📋 Starting to resolve repository")

	id, err := strconv.ParseInt(repoID, 10, 64)
	if err != nil || id <= 0 {
		return nil, core.InvalidRequest("Repository ID must be a positive integer")
	}

	repo, err := s.githubClients.ForToken(accessToken).GetRepositoryByID(ctx, id)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("repo_id", id).Msg("❌ Failed to resolve repository")
		return nil, core.NewError(core.KindRepositoryNotFound, "Repository not found", err)
	}

	ref := &models.RepositoryRef{
		ID:            repo.ID,
		FullName:      repo.FullName,
		Owner:         repo.Owner,
		Name:          repo.Name,
		DefaultBranch: repo.DefaultBranch,
	}

	log.Ctx(ctx).Info().Str("repository", ref.FullName).Msg("📋 Completed successfully - resolved repository")
	return ref, nil
}

// ReadFile returns the file content, or "" when the path does not exist
func (s *RepositorySourceService) ReadFile(
	ctx context.Context,
	accessToken string,
	ref *models.RepositoryRef,
	path string,
) (string, error) {
	content, err := s.githubClients.ForToken(accessToken).GetFileContent(ctx, ref.Owner, ref.Name, path)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("path", path).Msg("❌ Failed to fetch file")
		return "", core.NewStepError(core.KindFileFetchFailed, path, "Failed to fetch file: "+path, err)
	}

	if content.IsAbsent() {
		log.Ctx(ctx).Debug().Str("path", path).Msg("File not found, treating as empty")
	}
	return content.OrEmpty(), nil
}
