// Package auth persists the Stash API key and the Handy connection key in the system keyring.
package auth

import (
	"errors"

	"github.com/sceneplay/sceneplay/constant"
	"github.com/zalando/go-keyring"
)

// Credential names one secret kept for the user.
type Credential string

const (
	StashAPIKey     Credential = "stash-api-key"
	HandyConnection Credential = "handy-connection-key"
)

// Set stores the secret.
func Set(c Credential, secret string) error {
	return keyring.Set(constant.Sceneplay, string(c), secret)
}

// Get returns the stored secret, or an empty string if there is none.
func Get(c Credential) (string, error) {
	secret, err := keyring.Get(constant.Sceneplay, string(c))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return secret, err
}

// Delete removes the secret. Deleting a missing secret is not an error.
func Delete(c Credential) error {
	err := keyring.Delete(constant.Sceneplay, string(c))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
