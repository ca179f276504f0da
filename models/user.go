package models

// User is the GitHub account recovered from a verified session credential
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

// SessionClaims is everything a session credential carries once verified
// server-side. AccessToken must never be serialized into a response.
type SessionClaims struct {
	User        User   `json:"-"`
	AccessToken string `json:"-"`
}

// SessionCredential is the signed opaque value stored in the session cookie
type SessionCredential string
