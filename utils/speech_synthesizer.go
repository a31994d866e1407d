package utils

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/HugeFrog24/gpt-video-chat/datauri"
)

type OpenAISynthesizer struct {
	client SpeechClient
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

func NewOpenAISynthesizer(client SpeechClient, model, voice string) *OpenAISynthesizer {
	s := &OpenAISynthesizer{
		client: client,
		model:  openai.TTSModel1,
		voice:  openai.VoiceNova,
	}
	if model != "" {
		s.model = openai.SpeechModel(model)
	}
	if voice != "" {
		s.voice = openai.SpeechVoice(voice)
	}
	return s
}

// SynthesizeSpeech returns text spoken as an mp3 data URI.
func (s *OpenAISynthesizer) SynthesizeSpeech(ctx context.Context, text string) (string, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return "", &BackendError{Backend: "openai", Op: "speech", Err: err}
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return "", &BackendError{Backend: "openai", Op: "speech", Err: fmt.Errorf("failed to read audio: %w", err)}
	}
	return datauri.FromBytes(audio, "audio/mpeg"), nil
}
