package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	GlobalKeyPrefix = "learnnest"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// QuizResultKey is the key of a cached pipeline result, scoped to its owner.
func QuizResultKey(userID, quizID string) string {
	return GenerateCacheKey("quiz", "result", quizID, userID)
}

// EmbeddingKey is the key of a cached embedding for text from provider.
func EmbeddingKey(provider, text string) string {
	return GenerateCacheKey("embedding", provider, HashText(text))
}

// HashText returns the hex SHA-256 of s.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
