package api

// UserModel is the profile projection returned by GET /session
type UserModel struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

type SessionResponse struct {
	User  *UserModel `json:"user"`
	Error string     `json:"error,omitempty"`
}

type AuthorizeURLResponse struct {
	URL string `json:"url"`
}

type RepositoryModel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ConvertRequest struct {
	RepoID        string `json:"repoId"        validate:"required,numeric"`
	TargetProfile string `json:"targetProfile" validate:"required"`
}

type ConvertResponse struct {
	Message   string `json:"message"`
	BranchURL string `json:"branchUrl"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
