package utils

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/pemistahl/lingua-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/HugeFrog24/gpt-video-chat/config"
)

// NewPipelineFromConfig builds the real clients and registers every
// configured chat model. The single-backend CLI passes only cfg.ChatModel in
// models; the bakeoff passes nil to register all of them.
func NewPipelineFromConfig(cfg config.Config, models []string, logger *slog.Logger) (*Pipeline, error) {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	systemPrompt, err := LoadSystemPrompt(cfg.SystemPromptFile)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	openaiStrategy := NewOpenAIStrategy(client, systemPrompt)
	var ollamaStrategy *OllamaStrategy
	if len(cfg.OllamaModels) > 0 {
		host, err := url.Parse(cfg.OllamaHost)
		if err != nil {
			return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", cfg.OllamaHost, err)
		}
		ollamaStrategy = NewOllamaStrategy(api.NewClient(host, http.DefaultClient), systemPrompt)
	}

	wanted := make(map[string]bool, len(models))
	for _, m := range models {
		wanted[m] = true
	}
	register := func(model string, strategy ChatStrategy) error {
		if len(models) > 0 && !wanted[model] {
			return nil
		}
		return registry.Register(Backend{ID: model, Name: DisplayName(model), Strategy: strategy})
	}

	for _, model := range cfg.OpenAIModels {
		if err := register(model, openaiStrategy); err != nil {
			return nil, err
		}
	}
	for _, model := range cfg.OllamaModels {
		if err := register(model, ollamaStrategy); err != nil {
			return nil, err
		}
	}
	// A requested model that is in neither list is assumed to be an OpenAI model.
	for _, model := range models {
		if _, err := registry.Lookup(model); err != nil {
			if err := registry.Register(Backend{ID: model, Name: DisplayName(model), Strategy: openaiStrategy}); err != nil {
				return nil, err
			}
		}
	}

	var detector lingua.LanguageDetector
	if cfg.DetectLanguage {
		detector = NewLanguageDetector()
	}

	return NewPipeline(PipelineOptions{
		Extractor:       NewFFmpegExtractor(cfg.FFmpegPath, logger),
		Transcriber:     NewOpenAITranscriber(client, cfg.TranscriptionModel, detector, logger),
		Synthesizer:     NewOpenAISynthesizer(client, cfg.SpeechModel, cfg.SpeechVoice),
		Registry:        registry,
		FramesPerSecond: cfg.FramesPerSecond,
		Logger:          logger,
	}), nil
}
