package models

import (
	"fmt"

	"convbackend/utils"
)

// TargetProfile selects what a Streamlit repository is converted into
type TargetProfile string

const (
	ProfileNextJS       TargetProfile = "nextjs"
	ProfileReactFastAPI TargetProfile = "react-fastapi"
)

const (
	EntrypointPath         = "app.py"
	DependencyManifestPath = "requirements.txt"
)

// SourceBundle holds the files read from the source repository.
// An empty DependencyManifestContent means the manifest was absent.
type SourceBundle struct {
	EntrypointContent         string
	DependencyManifestContent string
}

type OutputFile struct {
	Path    string
	Content string
}

// OutputFileSet is the ordered list of files written to the new branch
type OutputFileSet []OutputFile

// Validate checks that every path is unique, relative and stays inside the repository
func (s OutputFileSet) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("output file set is empty")
	}
	seen := make(map[string]struct{}, len(s))
	for _, file := range s {
		if !utils.IsSafeRelativePath(file.Path) {
			return fmt.Errorf("unsafe output path %q", file.Path)
		}
		if _, exists := seen[file.Path]; exists {
			return fmt.Errorf("duplicate output path %q", file.Path)
		}
		seen[file.Path] = struct{}{}
	}
	return nil
}

// Paths returns the file paths in order
func (s OutputFileSet) Paths() []string {
	paths := make([]string, 0, len(s))
	for _, file := range s {
		paths = append(paths, file.Path)
	}
	return paths
}

// BranchPublication describes the branch and commit to create
type BranchPublication struct {
	NewBranchName string
	CommitMessage string
	BaseBranch    string
}

// PublishedBranch is what BranchPublisher reports after the ref advanced
type PublishedBranch struct {
	BranchName    string
	BaseCommitSHA string
	TreeSHA       string
	CommitSHA     string
}

// ConversionResult is returned to the client after a successful conversion
type ConversionResult struct {
	BranchURL  string
	BranchName string
	CommitSHA  string
}
