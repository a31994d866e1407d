package utils

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pemistahl/lingua-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/HugeFrog24/gpt-video-chat/datauri"
)

type OpenAITranscriber struct {
	client   TranscriptionClient
	model    string
	detector lingua.LanguageDetector
	logger   *slog.Logger
}

// NewOpenAITranscriber returns a Whisper-backed transcriber. detector may be
// nil to skip language detection.
func NewOpenAITranscriber(client TranscriptionClient, model string, detector lingua.LanguageDetector, logger *slog.Logger) *OpenAITranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAITranscriber{client: client, model: model, detector: detector, logger: logger}
}

// NewLanguageDetector builds a detector over every language lingua knows.
func NewLanguageDetector() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build()
}

func (t *OpenAITranscriber) TranscribeAudio(ctx context.Context, audioURI string) (string, error) {
	var text string
	err := datauri.AsTempFile(audioURI, func(path string) error {
		resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    t.model,
			FilePath: path,
		})
		if err != nil {
			return &BackendError{Backend: "openai", Op: "transcription", Err: err}
		}
		text = strings.TrimSpace(resp.Text)
		return nil
	})
	if err != nil {
		return "", err
	}

	if t.detector != nil && text != "" {
		if language, ok := t.detector.DetectLanguageOf(text); ok {
			t.logger.Info("detected transcription language", "language", language.String())
		}
	}
	return text, nil
}
