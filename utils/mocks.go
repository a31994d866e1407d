package utils

import (
	"context"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
)

type MockMediaExtractor struct {
	SplitFunc func(ctx context.Context, videoInput string, fps int) (ExtractionResult, error)
}

func (m *MockMediaExtractor) Split(ctx context.Context, videoInput string, fps int) (ExtractionResult, error) {
	return m.SplitFunc(ctx, videoInput, fps)
}

type MockAudioTranscriber struct {
	TranscribeAudioFunc func(ctx context.Context, audioURI string) (string, error)
}

func (m *MockAudioTranscriber) TranscribeAudio(ctx context.Context, audioURI string) (string, error) {
	return m.TranscribeAudioFunc(ctx, audioURI)
}

type MockSpeechSynthesizer struct {
	SynthesizeSpeechFunc func(ctx context.Context, text string) (string, error)
}

func (m *MockSpeechSynthesizer) SynthesizeSpeech(ctx context.Context, text string) (string, error) {
	return m.SynthesizeSpeechFunc(ctx, text)
}

type MockChatStrategy struct {
	ChatFunc func(ctx context.Context, model, prompt string, imageURIs []string, history *History) (string, error)
}

func (m *MockChatStrategy) Chat(ctx context.Context, model, prompt string, imageURIs []string, history *History) (string, error) {
	return m.ChatFunc(ctx, model, prompt, imageURIs, history)
}

type MockCommandRunner struct {
	LookPathFunc       func(file string) (string, error)
	CombinedOutputFunc func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func (m *MockCommandRunner) LookPath(file string) (string, error) {
	return m.LookPathFunc(file)
}

func (m *MockCommandRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return m.CombinedOutputFunc(ctx, name, args...)
}

type MockChatCompletionClient struct {
	CreateChatCompletionFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

func (m *MockChatCompletionClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return m.CreateChatCompletionFunc(ctx, req)
}

type MockTranscriptionClient struct {
	CreateTranscriptionFunc func(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

func (m *MockTranscriptionClient) CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	return m.CreateTranscriptionFunc(ctx, req)
}

type MockSpeechClient struct {
	CreateSpeechFunc func(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

func (m *MockSpeechClient) CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
	return m.CreateSpeechFunc(ctx, req)
}

type MockOllamaChatClient struct {
	ChatFunc func(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

func (m *MockOllamaChatClient) Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error {
	return m.ChatFunc(ctx, req, fn)
}
