package conversion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	anthropicclient "convbackend/clients/anthropic"
	githubclient "convbackend/clients/github"
	"convbackend/clients/identity"
	"convbackend/core"
	"convbackend/models"
	"convbackend/services/publisher"
	"convbackend/services/repositories"
)

const (
	testCredential  = models.SessionCredential("session-credential")
	testAccessToken = "gho_testtoken"
	testRepoID      = "4242"
	streamlitApp    = "import streamlit as st\nst.title('Hello')\n"
	nextPage        = "export default function Page() { return <h1>Hello</h1> }\n"
)

type conversionFixture struct {
	identity     *identity.MockIdentityProvider
	repositories *repositories.MockRepositorySource
	factory      *githubclient.MockGitHubClientFactory
	apiClient    *githubclient.MockGitHubAPIClient
	transformer  *anthropicclient.MockCodeTransformer
	publisher    *publisher.MockBranchPublisher
	ref          *models.RepositoryRef
	useCase      *ConversionUseCase
}

func newConversionFixture() *conversionFixture {
	f := &conversionFixture{
		identity:     &identity.MockIdentityProvider{},
		repositories: &repositories.MockRepositorySource{},
		factory:      &githubclient.MockGitHubClientFactory{},
		apiClient:    &githubclient.MockGitHubAPIClient{},
		transformer:  anthropicclient.NewMockCodeTransformer(),
		publisher:    &publisher.MockBranchPublisher{},
		ref: &models.RepositoryRef{
			ID:            4242,
			FullName:      "octocat/streamlit-demo",
			Owner:         "octocat",
			Name:          "streamlit-demo",
			DefaultBranch: "main",
		},
	}
	f.identity.WithSession(testCredential, &models.SessionClaims{
		User:        models.User{ID: "1001", Username: "octocat"},
		AccessToken: testAccessToken,
	})
	f.useCase = NewConversionUseCase(f.identity, f.repositories, f.factory, f.transformer, f.publisher)
	return f
}

func (f *conversionFixture) withSources(entrypoint, manifest string) {
	f.repositories.On("Resolve", mock.Anything, testAccessToken, testRepoID).Return(f.ref, nil)
	f.repositories.On("ReadFile", mock.Anything, testAccessToken, f.ref, models.EntrypointPath).Return(entrypoint, nil)
	f.repositories.On("ReadFile", mock.Anything, testAccessToken, f.ref, models.DependencyManifestPath).Return(manifest, nil)
}

// expectPublish records the publication and files passed to the publisher
func (f *conversionFixture) expectPublish(
	publications *[]models.BranchPublication,
	fileSets *[]models.OutputFileSet,
) {
	f.factory.WithClient(testAccessToken, f.apiClient)
	published := &models.PublishedBranch{}
	f.publisher.On("Publish", mock.Anything, f.apiClient, f.ref, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			publication := args.Get(3).(models.BranchPublication)
			*publications = append(*publications, publication)
			*fileSets = append(*fileSets, args.Get(4).(models.OutputFileSet))
			published.BranchName = publication.NewBranchName
			published.CommitSHA = "c0ffee"
		}).
		Return(published, nil)
}

func fileContent(files models.OutputFileSet, path string) (string, bool) {
	for _, file := range files {
		if file.Path == path {
			return file.Content, true
		}
	}
	return "", false
}

func TestConvert_NextJS(t *testing.T) {
	t.Run("empty manifest uses default package json", func(t *testing.T) {
		f := newConversionFixture()
		f.withSources(streamlitApp, "")
		f.transformer.On("StreamlitToNextJS", mock.Anything, streamlitApp).Return(nextPage, nil)
		var publications []models.BranchPublication
		var fileSets []models.OutputFileSet
		f.expectPublish(&publications, &fileSets)

		result, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.ProfileNextJS)

		require.NoError(t, err)
		require.Len(t, publications, 1)
		publication := publications[0]
		files := fileSets[0]

		assert.True(t, strings.HasPrefix(publication.NewBranchName, "converted-nextjs-"))
		assert.Equal(t, "feat: Convert Streamlit app to Next.js", publication.CommitMessage)
		assert.Equal(t, "main", publication.BaseBranch)
		assert.Equal(t, publication.NewBranchName, result.BranchName)
		assert.Equal(t, "https://github.com/octocat/streamlit-demo/tree/"+publication.NewBranchName, result.BranchURL)
		assert.Equal(t, "c0ffee", result.CommitSHA)

		assert.Equal(t, []string{"package.json", "src/app/page.tsx"}, files.Paths()[:2])
		assert.Contains(t, files.Paths(), "tailwind.config.ts")
		assert.Contains(t, files.Paths(), ".gitignore")

		page, ok := fileContent(files, "src/app/page.tsx")
		require.True(t, ok)
		assert.Equal(t, nextPage, page)

		packageJSON, ok := fileContent(files, "package.json")
		require.True(t, ok)
		assert.Equal(t, "converted-app", gjson.Get(packageJSON, "name").String())
		assert.Equal(t, "^10.4.19", gjson.Get(packageJSON, "devDependencies.autoprefixer").String())

		f.transformer.AssertNotCalled(t, "RequirementsToPackageJSON", mock.Anything, mock.Anything)
		f.transformer.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("manifest is translated to package json", func(t *testing.T) {
		f := newConversionFixture()
		f.withSources(streamlitApp, "pandas==2.2.0\n")
		f.transformer.WithNextJSPage(nextPage)
		f.transformer.On("RequirementsToPackageJSON", mock.Anything, "pandas==2.2.0\n").
			Return(`{"name":"demo","dependencies":{"danfojs":"^1.1.2"}}`, nil)
		var publications []models.BranchPublication
		var fileSets []models.OutputFileSet
		f.expectPublish(&publications, &fileSets)

		_, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.ProfileNextJS)

		require.NoError(t, err)
		packageJSON, ok := fileContent(fileSets[0], "package.json")
		require.True(t, ok)
		assert.Equal(t, "demo", gjson.Get(packageJSON, "name").String())
		assert.Equal(t, "^1.1.2", gjson.Get(packageJSON, "dependencies.danfojs").String())
		assert.Equal(t, "^3.4.1", gjson.Get(packageJSON, "devDependencies.tailwindcss").String())
		f.transformer.AssertExpectations(t)
	})

	t.Run("invalid package json from transformer", func(t *testing.T) {
		f := newConversionFixture()
		f.withSources(streamlitApp, "pandas\n")
		f.transformer.WithNextJSPage(nextPage)
		f.transformer.WithPackageJSON("here is your package.json")

		result, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.ProfileNextJS)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, core.ErrTransformFailed)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("page transform fails", func(t *testing.T) {
		f := newConversionFixture()
		f.withSources(streamlitApp, "")
		f.transformer.On("StreamlitToNextJS", mock.Anything, streamlitApp).Return("", errors.New("model overloaded"))

		_, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.ProfileNextJS)

		assert.ErrorIs(t, err, core.ErrTransformFailed)
		assert.Equal(t, 500, core.HTTPStatus(err))
		assert.NotContains(t, core.PublicMessage(err), "overloaded")
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConvert_ReactFastAPI(t *testing.T) {
	t.Run("transformer runs even with empty manifest", func(t *testing.T) {
		f := newConversionFixture()
		f.withSources(streamlitApp, "")
		output := anthropicclient.CreateTestReactFastAPIOutput()
		f.transformer.On("StreamlitToReactFastAPI", mock.Anything, streamlitApp, "").Return(output, nil)
		var publications []models.BranchPublication
		var fileSets []models.OutputFileSet
		f.expectPublish(&publications, &fileSets)

		result, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.ProfileReactFastAPI)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(result.BranchName, "converted-react-fastapi-"))
		assert.Equal(t, "feat: Convert Streamlit app to React + FastAPI", publications[0].CommitMessage)

		files := fileSets[0]
		assert.Equal(t, []string{
			"frontend/src/App.tsx",
			"backend/main.py",
			"frontend/package.json",
			"backend/requirements.txt",
		}, files.Paths()[:4])
		assert.Contains(t, files.Paths(), "frontend/public/index.html")
		assert.Contains(t, files.Paths(), "backend/.gitignore")

		mainPy, _ := fileContent(files, "backend/main.py")
		assert.Equal(t, output.FastAPIServerCode, mainPy)
		f.transformer.AssertExpectations(t)
	})

	t.Run("transformer fails", func(t *testing.T) {
		f := newConversionFixture()
		f.withSources(streamlitApp, "streamlit\n")
		f.transformer.On("StreamlitToReactFastAPI", mock.Anything, streamlitApp, "streamlit\n").
			Return(nil, errors.New("invalid JSON in model response"))

		_, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.ProfileReactFastAPI)

		assert.ErrorIs(t, err, core.ErrTransformFailed)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConvert_Failures(t *testing.T) {
	t.Run("missing entrypoint never publishes", func(t *testing.T) {
		f := newConversionFixture()
		f.withSources("", "streamlit\n")

		result, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.ProfileNextJS)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, core.ErrEntrypointMissing)
		assert.Equal(t, 404, core.HTTPStatus(err))
		assert.Equal(t, "Could not find a 'app.py' in the repository.", core.PublicMessage(err))
		f.transformer.AssertNotCalled(t, "StreamlitToNextJS", mock.Anything, mock.Anything)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unsupported profile", func(t *testing.T) {
		f := newConversionFixture()

		_, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.TargetProfile("django"))

		assert.ErrorIs(t, err, core.ErrUnsupportedProfile)
		assert.Equal(t, 400, core.HTTPStatus(err))
		f.repositories.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired session", func(t *testing.T) {
		f := newConversionFixture()
		expired := models.SessionCredential("expired-credential")
		f.identity.On("Verify", mock.Anything, expired).
			Return(nil, core.NewError(core.KindSessionExpired, "Session expired", nil))

		_, err := f.useCase.Convert(context.Background(), expired, testRepoID, models.ProfileNextJS)

		assert.ErrorIs(t, err, core.ErrNotAuthenticated)
		assert.ErrorIs(t, err, core.ErrSessionExpired)
		assert.Equal(t, 401, core.HTTPStatus(err))
		f.repositories.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("repository not found", func(t *testing.T) {
		f := newConversionFixture()
		f.repositories.On("Resolve", mock.Anything, testAccessToken, "999").
			Return(nil, core.NewError(core.KindRepositoryNotFound, "Repository not found", core.ErrNotFound))

		_, err := f.useCase.Convert(context.Background(), testCredential, "999", models.ProfileNextJS)

		assert.ErrorIs(t, err, core.ErrRepositoryNotFound)
		assert.Equal(t, 404, core.HTTPStatus(err))
	})

	t.Run("file fetch failure", func(t *testing.T) {
		f := newConversionFixture()
		f.repositories.On("Resolve", mock.Anything, testAccessToken, testRepoID).Return(f.ref, nil)
		f.repositories.On("ReadFile", mock.Anything, testAccessToken, f.ref, models.EntrypointPath).Return(streamlitApp, nil)
		f.repositories.On("ReadFile", mock.Anything, testAccessToken, f.ref, models.DependencyManifestPath).
			Return("", core.NewStepError(core.KindFileFetchFailed, models.DependencyManifestPath, "Failed to fetch file: requirements.txt", errors.New("502")))

		_, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.ProfileNextJS)

		assert.ErrorIs(t, err, core.ErrFileFetchFailed)
		assert.Equal(t, "Failed to fetch file: requirements.txt", core.PublicMessage(err))
		f.transformer.AssertNotCalled(t, "StreamlitToNextJS", mock.Anything, mock.Anything)
	})

	t.Run("publish failure is returned as is", func(t *testing.T) {
		f := newConversionFixture()
		f.withSources(streamlitApp, "")
		f.transformer.WithNextJSPage(nextPage)
		f.factory.WithClient(testAccessToken, f.apiClient)
		publishErr := core.NewStepError(core.KindPublishFailed, publisher.StepAdvanceRef, "Failed to publish branch at step AdvanceRef", errors.New("422"))
		f.publisher.On("Publish", mock.Anything, f.apiClient, f.ref, mock.Anything, mock.Anything).Return(nil, publishErr)

		_, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.ProfileNextJS)

		assert.ErrorIs(t, err, core.ErrPublishFailed)
		var appErr *core.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, publisher.StepAdvanceRef, appErr.Step)
	})
}

func TestConvert_BranchNamesAreUnique(t *testing.T) {
	f := newConversionFixture()
	f.withSources(streamlitApp, "")
	f.transformer.WithNextJSPage(nextPage)
	var publications []models.BranchPublication
	var fileSets []models.OutputFileSet
	f.expectPublish(&publications, &fileSets)

	for i := 0; i < 5; i++ {
		_, err := f.useCase.Convert(context.Background(), testCredential, testRepoID, models.ProfileNextJS)
		require.NoError(t, err)
	}

	seen := make(map[string]bool)
	for _, publication := range publications {
		assert.False(t, seen[publication.NewBranchName], publication.NewBranchName)
		seen[publication.NewBranchName] = true
	}
	assert.Len(t, seen, 5)
}
