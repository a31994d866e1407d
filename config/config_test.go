package config

import (
	"errors"
	"testing"
)

var allKeys = []string{
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "CHAT_MODEL", "OPENAI_MODELS", "OLLAMA_MODELS",
	"OLLAMA_HOST", "TRANSCRIPTION_MODEL", "SPEECH_MODEL", "SPEECH_VOICE",
	"SYSTEM_PROMPT_FILE", "FFMPEG_PATH", "FRAMES_PER_SECOND", "LISTEN_ADDR",
	"LOG_LEVEL", "DETECT_LANGUAGE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ChatModel != "gpt-4o" {
		t.Errorf("expected default chat model gpt-4o, got %s", cfg.ChatModel)
	}
	if len(cfg.OpenAIModels) != 2 || cfg.OpenAIModels[0] != "gpt-4o" {
		t.Errorf("unexpected default openai models %v", cfg.OpenAIModels)
	}
	if len(cfg.OllamaModels) != 1 || cfg.OllamaModels[0] != "llava:7b" {
		t.Errorf("unexpected default ollama models %v", cfg.OllamaModels)
	}
	if cfg.FramesPerSecond != 2 {
		t.Errorf("expected default fps 2, got %d", cfg.FramesPerSecond)
	}
	if cfg.SpeechVoice != "nova" {
		t.Errorf("expected default voice nova, got %s", cfg.SpeechVoice)
	}
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("expected default ffmpeg path, got %s", cfg.FFmpegPath)
	}
	if !cfg.DetectLanguage {
		t.Error("expected language detection on by default")
	}
}

func TestFromEnv_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODELS", "gpt-4o, gpt-4o-mini ,")
	t.Setenv("OLLAMA_MODELS", "-")
	t.Setenv("FRAMES_PER_SECOND", "4")
	t.Setenv("DETECT_LANGUAGE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.OpenAIModels) != 2 || cfg.OpenAIModels[1] != "gpt-4o-mini" {
		t.Errorf("unexpected openai models %v", cfg.OpenAIModels)
	}
	if len(cfg.OllamaModels) != 0 {
		t.Errorf("expected ollama models disabled, got %v", cfg.OllamaModels)
	}
	if cfg.FramesPerSecond != 4 {
		t.Errorf("expected fps 4, got %d", cfg.FramesPerSecond)
	}
	if cfg.DetectLanguage {
		t.Error("expected language detection off")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
}

func TestFromEnv_MissingKey(t *testing.T) {
	clearEnv(t)

	if _, err := FromEnv(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestFromEnv_InvalidFPS(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("FRAMES_PER_SECOND", "0")

	if _, err := FromEnv(); err == nil {
		t.Error("expected error for zero fps")
	}
}
