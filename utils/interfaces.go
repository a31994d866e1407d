package utils

import (
	"context"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
)

type MediaExtractor interface {
	Split(ctx context.Context, videoInput string, fps int) (ExtractionResult, error)
}

type AudioTranscriber interface {
	TranscribeAudio(ctx context.Context, audioURI string) (string, error)
}

type SpeechSynthesizer interface {
	SynthesizeSpeech(ctx context.Context, text string) (string, error)
}

// ChatStrategy sends one user turn to a chat backend. Implementations append
// the user turn to history before calling the backend and the reply turn
// only when the call succeeds.
type ChatStrategy interface {
	Chat(ctx context.Context, model, prompt string, imageURIs []string, history *History) (string, error)
}

// ProgressSink receives a phase label and a completion fraction in [0,1] at
// every pipeline stage boundary.
type ProgressSink interface {
	SetProgress(phase string, fraction float64)
}

// ProgressFunc adapts a plain function to ProgressSink.
type ProgressFunc func(phase string, fraction float64)

func (f ProgressFunc) SetProgress(phase string, fraction float64) { f(phase, fraction) }

// CommandRunner abstracts the transcoder executable.
type CommandRunner interface {
	LookPath(file string) (string, error)
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ChatCompletionClient is the subset of *openai.Client used by OpenAIStrategy.
type ChatCompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// TranscriptionClient is the subset of *openai.Client used by OpenAITranscriber.
type TranscriptionClient interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// SpeechClient is the subset of *openai.Client used by OpenAISynthesizer.
type SpeechClient interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// OllamaChatClient is the subset of *api.Client used by OllamaStrategy.
type OllamaChatClient interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}
