package utils

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugeFrog24/gpt-video-chat/datauri"
)

func TestTranscribeAudioUsesTempFile(t *testing.T) {
	var seenPath string
	client := &MockTranscriptionClient{
		CreateTranscriptionFunc: func(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
			seenPath = req.FilePath
			assert.Equal(t, openai.Whisper1, req.Model)
			assert.Equal(t, ".mp3", filepath.Ext(req.FilePath))
			data, err := os.ReadFile(req.FilePath)
			require.NoError(t, err)
			assert.Equal(t, "mp3 audio", string(data))
			return openai.AudioResponse{Text: "  Hello there.  "}, nil
		},
	}

	text, err := NewOpenAITranscriber(client, "", nil, nil).TranscribeAudio(context.Background(), datauri.FromBytes([]byte("mp3 audio"), "audio/mpeg"))
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", text)
	assert.NoFileExists(t, seenPath)
}

func TestTranscribeAudioBackendError(t *testing.T) {
	var seenPath string
	client := &MockTranscriptionClient{
		CreateTranscriptionFunc: func(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
			seenPath = req.FilePath
			return openai.AudioResponse{}, errors.New("401 unauthorized")
		},
	}

	_, err := NewOpenAITranscriber(client, "whisper-1", nil, nil).TranscribeAudio(context.Background(), datauri.FromBytes([]byte("x"), "audio/mpeg"))

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "transcription", backendErr.Op)
	assert.NoFileExists(t, seenPath)
}

func TestSynthesizeSpeech(t *testing.T) {
	var sent openai.CreateSpeechRequest
	client := &MockSpeechClient{
		CreateSpeechFunc: func(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
			sent = req
			return openai.RawResponse{ReadCloser: io.NopCloser(strings.NewReader("ID3 mp3"))}, nil
		},
	}

	uri, err := NewOpenAISynthesizer(client, "", "").SynthesizeSpeech(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, openai.TTSModel1, sent.Model)
	assert.Equal(t, openai.VoiceNova, sent.Voice)
	assert.Equal(t, openai.SpeechResponseFormatMp3, sent.ResponseFormat)
	assert.Equal(t, "", sent.Input)

	data, mime, err := datauri.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", mime)
	assert.Equal(t, "ID3 mp3", string(data))
}

func TestSynthesizeSpeechBackendError(t *testing.T) {
	client := &MockSpeechClient{
		CreateSpeechFunc: func(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
			return openai.RawResponse{}, errors.New("rate limited")
		},
	}

	_, err := NewOpenAISynthesizer(client, "tts-1-hd", "alloy").SynthesizeSpeech(context.Background(), "hi")

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "speech", backendErr.Op)
}
