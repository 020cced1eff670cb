package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp       openai.ChatCompletion
	err        error
	lastParams openai.ChatCompletionNewParams
}

func (m *mockChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	m.lastParams = params
	return m.resp, m.err
}

// mockImageService implements imageService for testing.
type mockImageService struct {
	resp openai.ImagesResponse
	err  error
}

func (m *mockImageService) Generate(ctx context.Context, params openai.ImageGenerateParams) (openai.ImagesResponse, error) {
	return m.resp, m.err
}

func TestComplete_Success(t *testing.T) {
	mockResp := openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "Hello World"}},
		},
	}
	client := &Client{chat: &mockChatService{resp: mockResp}, model: "test-model", temperature: 0.7}
	out, err := client.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
}

func TestComplete_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}, model: "test-model"}
	_, err := client.Complete(context.Background(), "sys", "usr")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	mockResp := openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}}
	client := &Client{chat: &mockChatService{resp: mockResp}, model: "test-model"}
	_, err := client.Complete(context.Background(), "sys", "usr")
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected no choices returned error, got %v", err)
	}
}

func TestCompleteWithHistory_BuildsMessageOrder(t *testing.T) {
	mock := &mockChatService{resp: openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "ok"}},
		},
	}}
	client := &Client{chat: mock, model: "test-model", temperature: 0.3}

	history := []Turn{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
	}
	if _, err := client.CompleteWithHistory(context.Background(), "persona", history, "second question"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// system + 2 history turns + current user message
	if got := len(mock.lastParams.Messages); got != 4 {
		t.Errorf("expected 4 messages, got %d", got)
	}
	if mock.lastParams.Model != "test-model" {
		t.Errorf("expected model 'test-model', got %q", mock.lastParams.Model)
	}
}

func TestGenerateImage_Success(t *testing.T) {
	client := &Client{images: &mockImageService{resp: openai.ImagesResponse{
		Data: []openai.Image{{URL: "https://img.example/1.png"}},
	}}}
	url, err := client.GenerateImage(context.Background(), "a red house")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if url != "https://img.example/1.png" {
		t.Errorf("unexpected URL %q", url)
	}
}

func TestGenerateImage_Empty(t *testing.T) {
	client := &Client{images: &mockImageService{resp: openai.ImagesResponse{}}}
	if _, err := client.GenerateImage(context.Background(), "a red house"); err == nil {
		t.Error("expected error for empty image response, got nil")
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

func TestNewClient_WithKey(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"), WithModel("gpt-4o"), WithTemperature(0.5))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli == nil {
		t.Fatal("expected client instance, got nil")
	}
	if cli.model != "gpt-4o" {
		t.Errorf("expected model override, got %q", cli.model)
	}
}
