package auth

import (
	"errors"
	"strings"
	"testing"
)

type MockChecker struct {
	collisions int
	calls      int
	err        error
}

func (m *MockChecker) ExistsByAPIKey(key string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.calls <= m.collisions, nil
}

func TestGenerateAPIKey(t *testing.T) {
	checker := &MockChecker{}

	key, err := GenerateAPIKey(checker)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.HasPrefix(key, APIKeyPrefix) {
		t.Errorf("Expected %s prefix, got %s", APIKeyPrefix, key)
	}
	if len(key) != len(APIKeyPrefix)+32 {
		t.Errorf("Expected %d chars, got %d", len(APIKeyPrefix)+32, len(key))
	}
	for _, c := range key[len(APIKeyPrefix):] {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("Non-hex character %q in key %s", c, key)
			break
		}
	}

	second, err := GenerateAPIKey(checker)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if second == key {
		t.Error("Expected distinct keys across calls")
	}
}

func TestGenerateAPIKey_CollisionRetry(t *testing.T) {
	checker := &MockChecker{collisions: 2}

	_, err := GenerateAPIKey(checker)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if checker.calls != 3 {
		t.Errorf("Expected 3 availability checks, got %d", checker.calls)
	}
}

func TestGenerateAPIKey_Exhausted(t *testing.T) {
	checker := &MockChecker{collisions: 100}

	if _, err := GenerateAPIKey(checker); err == nil {
		t.Error("Expected error when every candidate collides, got nil")
	}
}

func TestGenerateAPIKey_CheckerError(t *testing.T) {
	checker := &MockChecker{err: errors.New("db error")}

	if _, err := GenerateAPIKey(checker); err == nil {
		t.Error("Expected checker error to propagate, got nil")
	}
}
