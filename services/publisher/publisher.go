package publisher

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"convbackend/clients"
	"convbackend/core"
	"convbackend/models"
)

// Publish steps, in the order they run
const (
	StepResolveHead = "ResolveHead"
	StepCreateRef   = "CreateRef"
	StepWriteTree   = "WriteTree"
	StepWriteCommit = "WriteCommit"
	StepAdvanceRef  = "AdvanceRef"
)

// BranchPublisherService creates a branch from the default branch head and
// moves it onto a single new commit holding the output files.
// The branch only shows the new files once AdvanceRef succeeds; a failure
// earlier leaves it pointing at the base commit. Nothing is rolled back.
type BranchPublisherService struct{}

func NewBranchPublisherService() *BranchPublisherService {
	return &BranchPublisherService{}
}

func (s *BranchPublisherService) Publish(
	ctx context.Context,
	git clients.GitDataClient,
	ref *models.RepositoryRef,
	publication models.BranchPublication,
	files models.OutputFileSet,
) (*models.PublishedBranch, error) {
	logger := log.Ctx(ctx).With().
		Str("repository", ref.FullName).
		Str("branch", publication.NewBranchName).
		Logger()
	logger.Info().Int("files", len(files)).Msg("📋 Starting to publish branch")

	if err := files.Validate(); err != nil {
		return nil, core.NewStepError(core.KindPublishFailed, StepWriteTree, "Refusing to publish invalid output", err)
	}

	baseBranch := publication.BaseBranch
	if baseBranch == "" {
		baseBranch = ref.DefaultBranch
	}

	baseSHA, err := git.GetBranchHeadSHA(ctx, ref.Owner, ref.Name, baseBranch)
	if err != nil {
		return nil, stepFailed(StepResolveHead, err)
	}

	if err := git.CreateBranch(ctx, ref.Owner, ref.Name, publication.NewBranchName, baseSHA); err != nil {
		return nil, stepFailed(StepCreateRef, err)
	}

	treeSHA, err := git.CreateTree(ctx, ref.Owner, ref.Name, files)
	if err != nil {
		return nil, stepFailed(StepWriteTree, err)
	}

	commitSHA, err := git.CreateCommit(ctx, ref.Owner, ref.Name, publication.CommitMessage, treeSHA, baseSHA)
	if err != nil {
		return nil, stepFailed(StepWriteCommit, err)
	}

	if err := git.UpdateBranch(ctx, ref.Owner, ref.Name, publication.NewBranchName, commitSHA); err != nil {
		return nil, stepFailed(StepAdvanceRef, err)
	}

	logger.Info().Str("commit", commitSHA).Msg("📋 Completed successfully - published branch")
	return &models.PublishedBranch{
		BranchName:    publication.NewBranchName,
		BaseCommitSHA: baseSHA,
		TreeSHA:       treeSHA,
		CommitSHA:     commitSHA,
	}, nil
}

func stepFailed(step string, err error) error {
	return core.NewStepError(core.KindPublishFailed, step, fmt.Sprintf("Failed to publish branch at step %s", step), err)
}
