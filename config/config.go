package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned by Load when OPENAI_API_KEY is not set.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable is not set")

type Config struct {
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	ChatModel          string
	OpenAIModels       []string
	OllamaModels       []string
	OllamaHost         string
	TranscriptionModel string
	SpeechModel        string
	SpeechVoice        string
	SystemPromptFile   string
	FFmpegPath         string
	FramesPerSecond    int
	ListenAddr         string
	LogLevel           string
	DetectLanguage     bool
}

// Load reads an optional .env file from the working directory and then
// builds the configuration from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		OpenAIAPIKey:       envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      envStr("OPENAI_BASE_URL", ""),
		ChatModel:          envStr("CHAT_MODEL", "gpt-4o"),
		OpenAIModels:       envList("OPENAI_MODELS", []string{"gpt-4o", "gpt-4-turbo"}),
		OllamaModels:       envList("OLLAMA_MODELS", []string{"llava:7b"}),
		OllamaHost:         envStr("OLLAMA_HOST", "http://localhost:11434"),
		TranscriptionModel: envStr("TRANSCRIPTION_MODEL", "whisper-1"),
		SpeechModel:        envStr("SPEECH_MODEL", "tts-1"),
		SpeechVoice:        envStr("SPEECH_VOICE", "nova"),
		SystemPromptFile:   envStr("SYSTEM_PROMPT_FILE", ""),
		FFmpegPath:         envStr("FFMPEG_PATH", "ffmpeg"),
		FramesPerSecond:    envInt("FRAMES_PER_SECOND", 2),
		ListenAddr:         envStr("LISTEN_ADDR", ":8080"),
		LogLevel:           envStr("LOG_LEVEL", "info"),
		DetectLanguage:     envBool("DETECT_LANGUAGE", true),
	}

	if cfg.OpenAIAPIKey == "" {
		return cfg, ErrMissingAPIKey
	}
	if cfg.FramesPerSecond <= 0 {
		return cfg, fmt.Errorf("FRAMES_PER_SECOND must be positive, got %d", cfg.FramesPerSecond)
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envList splits a comma separated variable. A variable set to "-" yields an
// empty list so a backend family can be switched off.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if v == "-" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
