package instagram

import (
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// LoginPath is the interactive login form
	LoginPath = "/accounts/login/"

	// FollowersPathSuffix ends every followers-modal link
	FollowersPathSuffix = "/followers/"
)

// ProfileURL constructs the canonical profile URL base/<username>/
func ProfileURL(base, username string) string {
	if username == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + username + "/"
}

// LoginURL returns the login form URL under base
func LoginURL(base string) string {
	return strings.TrimRight(base, "/") + LoginPath
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	// Instagram usernames can only contain letters, numbers, periods, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername accepts "@name", "name/" or a full profile URL and returns the bare name
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return ""
	}

	if strings.Contains(username, "://") {
		if u, err := url.Parse(username); err == nil {
			username = strings.Trim(u.Path, "/")
			if i := strings.Index(username, "/"); i >= 0 {
				username = username[:i]
			}
		}
	}

	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
