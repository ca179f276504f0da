package api

import (
	"strconv"

	"convbackend/models"
)

// DomainUserToAPIUser converts a session user to the public profile shape.
// The display name falls back to the GitHub login.
func DomainUserToAPIUser(domainUser *models.User) *UserModel {
	if domainUser == nil {
		return nil
	}

	displayName := domainUser.DisplayName
	if displayName == "" {
		displayName = domainUser.Username
	}

	return &UserModel{
		ID:          domainUser.ID,
		Email:       domainUser.Email,
		DisplayName: displayName,
		PhotoURL:    domainUser.AvatarURL,
	}
}

// DomainRepositoriesToAPIRepositories converts repository summaries for the picker
func DomainRepositoriesToAPIRepositories(repos []models.RepositorySummary) []RepositoryModel {
	result := make([]RepositoryModel, 0, len(repos))
	for _, repo := range repos {
		result = append(result, RepositoryModel{
			ID:   strconv.FormatInt(repo.ID, 10),
			Name: repo.Name,
		})
	}
	return result
}
