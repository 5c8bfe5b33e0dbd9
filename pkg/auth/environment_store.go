package auth

import (
	"os"
	"time"
)

const (
	EnvUsername = "IG_USER"
	EnvPassword = "IG_PASS"
)

// EnvironmentStore implements CredentialStore using IG_USER and IG_PASS.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account. An empty username matches it,
// otherwise it must equal IG_USER.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	user := os.Getenv(EnvUsername)
	pass := os.Getenv(EnvPassword)

	if user == "" || pass == "" {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && username != user {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     user,
		Password:     pass,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
