package auth

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const APIKeyPrefix = "sk_live_"

type KeyAvailabilityChecker interface {
	ExistsByAPIKey(key string) (bool, error)
}

// GenerateAPIKey returns a fresh sk_live_ credential (32 hex chars after
// the prefix) with collision retry against the store.
func GenerateAPIKey(checker KeyAvailabilityChecker) (string, error) {
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		key := APIKeyPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")

		exists, err := checker.ExistsByAPIKey(key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
	}

	return "", errors.New("failed to generate unique api key")
}
