package quizgen

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"learnnest/internal/domain"

	"github.com/stretchr/testify/mock"
)

// scriptedCompleter answers each call with the next function in replies. Once
// replies run out the last one is reused.
type scriptedCompleter struct {
	mu       sync.Mutex
	replies  []func(domain.CompletionRequest) (string, error)
	requests []domain.CompletionRequest
}

func reply(s string) func(domain.CompletionRequest) (string, error) {
	return func(domain.CompletionRequest) (string, error) { return s, nil }
}

func fail(err error) func(domain.CompletionRequest) (string, error) {
	return func(domain.CompletionRequest) (string, error) { return "", err }
}

func (c *scriptedCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.requests = append(c.requests, req)
	if len(c.replies) == 0 {
		return "", fmt.Errorf("no scripted reply")
	}
	i := min(len(c.requests)-1, len(c.replies)-1)
	return c.replies[i](req)
}

func (c *scriptedCompleter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// secondaryFake routes keyword and review prompts to separate handlers.
type secondaryFake struct {
	mu       sync.Mutex
	keywords func(domain.CompletionRequest) (string, error)
	review   func(domain.CompletionRequest) (string, error)
	reviews  int
}

func (c *secondaryFake) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch req.System {
	case keywordSystemPrompt:
		if c.keywords == nil {
			return "cells, energy", nil
		}
		return c.keywords(req)
	case semanticSystemPrompt:
		c.reviews++
		if c.review == nil {
			return "", fmt.Errorf("review not scripted")
		}
		return c.review(req)
	}
	return "", fmt.Errorf("unexpected system prompt")
}

// MockEmbedder is a testify mock for domain.EmbeddingService.
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockVectorIndex is a testify mock for domain.VectorIndex.
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]domain.VectorMatch, error) {
	args := m.Called(ctx, vector, topK, includeMetadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VectorMatch), args.Error(1)
}

// MockAuditStore is a testify mock for domain.AuditLogStore.
type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Append(ctx context.Context, collectionPath string, record *domain.AuditRecord) error {
	args := m.Called(ctx, collectionPath, record)
	return args.Error(0)
}

// questionsJSON renders n well-formed multiple-choice questions with ids
// "<prefix><i>".
func questionsJSON(prefix string, n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"%s%d","type":"multiple-choice","question":"Which statement about topic %d is correct?","options":["A%d","B%d","C%d","D%d"],"correctAnswer":"A%d","explanation":"Stated in the notes.","cognitiveLevel":"remember","sources":[],"languageCode":"en","accessibilityNote":""}`,
			prefix, i, i, i, i, i, i, i)
	}
	return "[" + strings.Join(items, ",") + "]"
}

// verdictsJSON renders n verdicts with the given validity.
func verdictsJSON(n int, valid bool) string {
	items := make([]string, n)
	for i := range items {
		if valid {
			items[i] = `{"valid":true,"reasons":[]}`
		} else {
			items[i] = `{"valid":false,"reasons":["not supported by the context"]}`
		}
	}
	return "[" + strings.Join(items, ",") + "]"
}

// countFromPrompt reads the question count out of a generator prompt.
func countFromPrompt(prompt string) int {
	var n int
	_, _ = fmt.Sscanf(prompt, "Write exactly %d quiz questions", &n)
	return n
}

var reviewCountPattern = regexp.MustCompile(`exactly (\d+) elements`)

// reviewAll answers a review prompt with one verdict per question.
func reviewAll(valid bool) func(domain.CompletionRequest) (string, error) {
	return func(req domain.CompletionRequest) (string, error) {
		m := reviewCountPattern.FindStringSubmatch(req.Prompt)
		if m == nil {
			return "", fmt.Errorf("review prompt without a count")
		}
		n, _ := strconv.Atoi(m[1])
		return verdictsJSON(n, valid), nil
	}
}

// generateRequested answers a generator prompt with exactly the requested
// number of questions.
func generateRequested(prefix string) func(domain.CompletionRequest) (string, error) {
	return func(req domain.CompletionRequest) (string, error) {
		return questionsJSON(prefix, countFromPrompt(req.Prompt)), nil
	}
}

// blockingCompleter never answers before its context is done.
type blockingCompleter struct{}

func (blockingCompleter) Complete(ctx context.Context, _ domain.CompletionRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
