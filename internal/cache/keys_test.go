package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCacheKey(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		objectType  string
		identifier  string
		paramsKey   []string
		expectedKey string
	}{
		{
			name:        "without paramsKey",
			serviceName: "quiz",
			objectType:  "result",
			identifier:  "01J9ZK",
			expectedKey: "learnnest:quiz:result:01J9ZK",
		},
		{
			name:        "with empty paramsKey",
			serviceName: "quiz",
			objectType:  "result",
			identifier:  "01J9ZK",
			paramsKey:   []string{},
			expectedKey: "learnnest:quiz:result:01J9ZK",
		},
		{
			name:        "with multiple paramsKey",
			serviceName: "embedding",
			objectType:  "openai",
			identifier:  "abc",
			paramsKey:   []string{"v1", "small"},
			expectedKey: "learnnest:embedding:openai:abc:v1_small",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedKey, GenerateCacheKey(tt.serviceName, tt.objectType, tt.identifier, tt.paramsKey...))
		})
	}
}

func TestQuizResultKey(t *testing.T) {
	assert.Equal(t, "learnnest:quiz:result:q-1:user-9", QuizResultKey("user-9", "q-1"))
	assert.NotEqual(t, QuizResultKey("a", "q-1"), QuizResultKey("b", "q-1"))
}

func TestEmbeddingKey(t *testing.T) {
	key := EmbeddingKey("openai", "cells, energy")
	assert.True(t, strings.HasPrefix(key, "learnnest:embedding:openai:"))
	assert.Len(t, HashText("x"), 64)
	assert.Equal(t, key, EmbeddingKey("openai", "cells, energy"))
}
