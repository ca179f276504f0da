package models

import "fmt"

// RepositoryRef identifies a resolved GitHub repository
type RepositoryRef struct {
	ID            int64
	FullName      string
	Owner         string
	Name          string
	DefaultBranch string
}

// BranchURL is the web address of a branch in this repository
func (r RepositoryRef) BranchURL(branch string) string {
	return fmt.Sprintf("https://github.com/%s/tree/%s", r.FullName, branch)
}

// RepositorySummary is one row of the repository picker
type RepositorySummary struct {
	ID   int64
	Name string
}
