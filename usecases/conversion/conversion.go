package conversion

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"convbackend/clients"
	"convbackend/core"
	"convbackend/models"
	"convbackend/services"
)

type ConversionUseCase struct {
	identity      clients.IdentityProvider
	repositories  services.RepositorySource
	githubClients clients.GitHubClientFactory
	transformer   clients.CodeTransformer
	publisher     services.BranchPublisher
}

func NewConversionUseCase(
	identity clients.IdentityProvider,
	repositories services.RepositorySource,
	githubClients clients.GitHubClientFactory,
	transformer clients.CodeTransformer,
	publisher services.BranchPublisher,
) *ConversionUseCase {
	return &ConversionUseCase{
		identity:      identity,
		repositories:  repositories,
		githubClients: githubClients,
		transformer:   transformer,
		publisher:     publisher,
	}
}

// Convert reads the Streamlit app from repoID, generates the target project and
// publishes it as a single commit on a new branch
func (u *ConversionUseCase) Convert(
	ctx context.Context,
	credential models.SessionCredential,
	repoID string,
	target models.TargetProfile,
) (*models.ConversionResult, error) {
	log.Ctx(ctx).Info().Str("repo_id", repoID).Str("target_profile", string(target)).Msg("📋 Starting to convert repository")

	claims, err := u.identity.Verify(ctx, credential)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("❌ Session verification failed")
		return nil, core.NewError(core.KindNotAuthenticated, "Not authenticated", err)
	}

	// unknown profiles are rejected before any remote call
	selected, err := lookupProfile(target)
	if err != nil {
		return nil, err
	}

	ref, err := u.repositories.Resolve(ctx, claims.AccessToken, repoID)
	if err != nil {
		return nil, err
	}

	bundle, err := u.readSources(ctx, claims.AccessToken, ref)
	if err != nil {
		return nil, err
	}
	if bundle.EntrypointContent == "" {
		log.Ctx(ctx).Warn().Str("repository", ref.FullName).Msg("❌ Entrypoint not found")
		return nil, core.NewError(
			core.KindEntrypointMissing,
			fmt.Sprintf("Could not find a '%s' in the repository.", models.EntrypointPath),
			nil,
		)
	}

	files, err := selected.buildOutput(ctx, u.transformer, *bundle)
	if err != nil {
		return nil, err
	}
	if err := files.Validate(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("❌ Generated file set is invalid")
		return nil, transformFailed(err)
	}

	publication := models.BranchPublication{
		NewBranchName: fmt.Sprintf("converted-%s-%s", selected.name, core.NewBranchSuffix()),
		CommitMessage: selected.commitMessage,
		BaseBranch:    ref.DefaultBranch,
	}
	published, err := u.publisher.Publish(ctx, u.githubClients.ForToken(claims.AccessToken), ref, publication, files)
	if err != nil {
		return nil, err
	}

	result := &models.ConversionResult{
		BranchURL:  ref.BranchURL(published.BranchName),
		BranchName: published.BranchName,
		CommitSHA:  published.CommitSHA,
	}
	log.Ctx(ctx).Info().
		Str("repository", ref.FullName).
		Str("branch", result.BranchName).
		Int("files", len(files)).
		Msg("📋 Completed successfully - converted repository")
	return result, nil
}

// readSources fetches the entrypoint and the dependency manifest concurrently
func (u *ConversionUseCase) readSources(
	ctx context.Context,
	accessToken string,
	ref *models.RepositoryRef,
) (*models.SourceBundle, error) {
	var bundle models.SourceBundle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		content, err := u.repositories.ReadFile(gctx, accessToken, ref, models.EntrypointPath)
		bundle.EntrypointContent = content
		return err
	})
	g.Go(func() error {
		content, err := u.repositories.ReadFile(gctx, accessToken, ref, models.DependencyManifestPath)
		bundle.DependencyManifestContent = content
		return err
	})
	if err := g.Wait(); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("repository", ref.FullName).Msg("❌ Failed to read source files")
		var appErr *core.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, core.NewError(core.KindFileFetchFailed, "Failed to fetch source files", err)
	}
	return &bundle, nil
}
