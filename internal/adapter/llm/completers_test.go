package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnnest/internal/config"
	"learnnest/internal/domain"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

var request = domain.CompletionRequest{System: "be terse", Prompt: "list three cell organelles", Temperature: 0.3}

type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func TestOpenAICompleter_Complete(t *testing.T) {
	client := new(MockChatClient)
	c := &OpenAICompleter{client: client, model: openai.GPT4o}

	client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(r openai.ChatCompletionRequest) bool {
		return r.Model == openai.GPT4o &&
			len(r.Messages) == 2 &&
			r.Messages[0].Role == openai.ChatMessageRoleSystem &&
			r.Messages[1].Content == request.Prompt &&
			r.Temperature == float32(0.3)
	})).Return(openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: `["nucleus","ribosome","mitochondrion"]`}}},
	}, nil).Once()

	out, err := c.Complete(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, `["nucleus","ribosome","mitochondrion"]`, out)
	client.AssertExpectations(t)
}

func TestOpenAICompleter_Errors(t *testing.T) {
	client := new(MockChatClient)
	c := &OpenAICompleter{client: client, model: openai.GPT4o}

	client.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, errors.New("429 too many requests")).Once()
	_, err := c.Complete(context.Background(), request)
	assert.ErrorContains(t, err, "429")

	client.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, nil).Once()
	_, err = c.Complete(context.Background(), request)
	assert.ErrorContains(t, err, "no choices")
}

func TestNewOpenAICompleter(t *testing.T) {
	_, err := NewOpenAICompleter("", "")
	assert.Error(t, err)

	c, err := NewOpenAICompleter("sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, openai.GPT4o, c.model)
}

type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func geminiResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}}},
	}
}

func TestGeminiCompleter_Complete(t *testing.T) {
	models := new(MockContentGenerator)
	c := &GeminiCompleter{models: models, model: "gemini-1.5-pro"}

	models.On("GenerateContent", mock.Anything, "gemini-1.5-pro", genai.Text(request.Prompt), mock.MatchedBy(func(cfg *genai.GenerateContentConfig) bool {
		return cfg.SystemInstruction != nil &&
			cfg.SystemInstruction.Parts[0].Text == request.System &&
			cfg.Temperature != nil && *cfg.Temperature == float32(0.3)
	})).Return(geminiResponse(`[{"valid":true,"reasons":[]}]`), nil).Once()

	out, err := c.Complete(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, `[{"valid":true,"reasons":[]}]`, out)
	models.AssertExpectations(t)
}

func TestGeminiCompleter_Errors(t *testing.T) {
	models := new(MockContentGenerator)
	c := &GeminiCompleter{models: models, model: "gemini-1.5-pro"}

	models.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("permission denied")).Once()
	_, err := c.Complete(context.Background(), request)
	assert.ErrorContains(t, err, "permission denied")

	models.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(geminiResponse(""), nil).Once()
	_, err = c.Complete(context.Background(), request)
	assert.ErrorContains(t, err, "empty response")
}

type fakeModel struct {
	messages []llms.MessageContent
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangchainCompleter_Complete(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "cells, energy"}}}}
	c := NewLangchainCompleter(model, "ollama/qwen3")

	out, err := c.Complete(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, "cells, energy", out)
	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)

	model.resp = &llms.ContentResponse{}
	_, err = c.Complete(context.Background(), domain.CompletionRequest{Prompt: "x"})
	assert.ErrorContains(t, err, "no choices")
	assert.Len(t, model.messages, 1)

	model.err = errors.New("connection refused")
	_, err = c.Complete(context.Background(), request)
	assert.ErrorContains(t, err, "connection refused")
}

type slowCompleter struct{}

func (slowCompleter) Complete(ctx context.Context, _ domain.CompletionRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Second):
		return "late", nil
	}
}

func TestWithTimeout(t *testing.T) {
	_, err := WithTimeout(slowCompleter{}, 10*time.Millisecond).Complete(context.Background(), request)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var next domain.TextCompleter = slowCompleter{}
	assert.Equal(t, next, WithTimeout(next, 0))
}

func TestNewCompleter(t *testing.T) {
	ctx := context.Background()
	llmCfg := config.LLMConfig{OpenAIAPIKey: "sk-test", OllamaServer: "http://localhost:11434", Timeout: time.Minute}

	c, err := NewCompleter(ctx, config.ProviderConfig{Provider: ProviderOpenAI, Model: "gpt-4o"}, llmCfg)
	require.NoError(t, err)
	assert.IsType(t, &timeoutCompleter{}, c)

	c, err = NewCompleter(ctx, config.ProviderConfig{Provider: ProviderOllama, Model: "qwen3"}, config.LLMConfig{OllamaServer: "http://localhost:11434"})
	require.NoError(t, err)
	assert.IsType(t, &LangchainCompleter{}, c)

	_, err = NewCompleter(ctx, config.ProviderConfig{Provider: ProviderGemini}, llmCfg)
	assert.ErrorContains(t, err, "gemini API key")

	_, err = NewCompleter(ctx, config.ProviderConfig{Provider: "mystery"}, llmCfg)
	assert.ErrorContains(t, err, "unknown llm provider")
}
