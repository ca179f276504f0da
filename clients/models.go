package clients

import "fmt"

type GitHubUser struct {
	ID        int64
	Login     string
	Name      string
	Email     string
	AvatarURL string
}

type GitHubRepository struct {
	ID            int64
	Name          string
	FullName      string
	Owner         string
	DefaultBranch string
}

// ReactFastAPIOutput is the four-file result of a React + FastAPI conversion
type ReactFastAPIOutput struct {
	ReactComponentCode     string `json:"reactComponentCode"     validate:"required"`
	FastAPIServerCode      string `json:"fastApiServerCode"      validate:"required"`
	ReactPackageJSON       string `json:"reactPackageJson"       validate:"required"`
	FastAPIRequirementsTxt string `json:"fastApiRequirementsTxt" validate:"required"`
}

// ProviderError is an error reported by the OAuth provider in its token response
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}
