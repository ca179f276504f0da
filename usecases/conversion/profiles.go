package conversion

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"convbackend/clients"
	"convbackend/core"
	"convbackend/models"
)

// profile is the closed set of conversion targets
type profile struct {
	name          models.TargetProfile
	commitMessage string
	scaffoldDir   string
	generate      func(ctx context.Context, transformer clients.CodeTransformer, bundle models.SourceBundle) (models.OutputFileSet, error)
}

var profiles = map[models.TargetProfile]profile{
	models.ProfileNextJS: {
		name:          models.ProfileNextJS,
		commitMessage: "feat: Convert Streamlit app to Next.js",
		scaffoldDir:   "nextjs",
		generate:      generateNextJS,
	},
	models.ProfileReactFastAPI: {
		name:          models.ProfileReactFastAPI,
		commitMessage: "feat: Convert Streamlit app to React + FastAPI",
		scaffoldDir:   "react-fastapi",
		generate:      generateReactFastAPI,
	},
}

func lookupProfile(target models.TargetProfile) (profile, error) {
	p, ok := profiles[target]
	if !ok {
		return profile{}, core.NewError(core.KindUnsupportedProfile, "Invalid target profile", nil)
	}
	return p, nil
}

// SupportedProfiles lists the accepted target profile names
func SupportedProfiles() []models.TargetProfile {
	return []models.TargetProfile{models.ProfileNextJS, models.ProfileReactFastAPI}
}

// buildOutput runs the profile's generator and appends the fixed scaffold
func (p profile) buildOutput(
	ctx context.Context,
	transformer clients.CodeTransformer,
	bundle models.SourceBundle,
) (models.OutputFileSet, error) {
	generated, err := p.generate(ctx, transformer, bundle)
	if err != nil {
		return nil, err
	}

	scaffold, err := loadScaffold(p.scaffoldDir)
	if err != nil {
		return nil, core.NewError(core.KindTransformFailed, "Failed to prepare project files", err)
	}

	files := make(models.OutputFileSet, 0, len(generated)+len(scaffold))
	files = append(files, generated...)
	files = append(files, scaffold...)
	return files, nil
}

func generateNextJS(
	ctx context.Context,
	transformer clients.CodeTransformer,
	bundle models.SourceBundle,
) (models.OutputFileSet, error) {
	page, err := transformer.StreamlitToNextJS(ctx, bundle.EntrypointContent)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("❌ Failed to convert entrypoint to Next.js page")
		return nil, transformFailed(err)
	}

	packageJSON := defaultPackageJSON
	if strings.TrimSpace(bundle.DependencyManifestContent) != "" {
		packageJSON, err = transformer.RequirementsToPackageJSON(ctx, bundle.DependencyManifestContent)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("❌ Failed to convert requirements to package.json")
			return nil, transformFailed(err)
		}
	} else {
		log.Ctx(ctx).Info().Msg("📋 No requirements found, using default package.json")
	}

	merged, err := mergeStyleDevDependencies(packageJSON)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("❌ Generated package.json is invalid")
		return nil, transformFailed(err)
	}

	return models.OutputFileSet{
		{Path: "package.json", Content: merged},
		{Path: "src/app/page.tsx", Content: page},
	}, nil
}

func generateReactFastAPI(
	ctx context.Context,
	transformer clients.CodeTransformer,
	bundle models.SourceBundle,
) (models.OutputFileSet, error) {
	output, err := transformer.StreamlitToReactFastAPI(ctx, bundle.EntrypointContent, bundle.DependencyManifestContent)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("❌ Failed to convert app to React + FastAPI")
		return nil, transformFailed(err)
	}

	return models.OutputFileSet{
		{Path: "frontend/src/App.tsx", Content: output.ReactComponentCode},
		{Path: "backend/main.py", Content: output.FastAPIServerCode},
		{Path: "frontend/package.json", Content: output.ReactPackageJSON},
		{Path: "backend/requirements.txt", Content: output.FastAPIRequirementsTxt},
	}, nil
}

func transformFailed(err error) error {
	return core.NewError(core.KindTransformFailed, "Code transformation failed", err)
}
